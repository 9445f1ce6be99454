//autoctor:default setup
package shapes
