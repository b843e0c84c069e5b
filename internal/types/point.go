// README: Map coordinate value object (SCUM world units).
package types

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
