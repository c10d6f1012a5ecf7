package export

import "time"

// ValueKind discriminates the graph value tagged union. Variants are
// dispatched by tag, never by open polymorphism: adding a kind means
// updating every exhaustive switch in serializer.go.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindBytes
	KindDateTime
	KindLocalDateTime
	KindLocalDate
	KindLocalTime
	KindOffsetTime
	KindDuration
	KindPoint2D
	KindPoint3D
	KindList
	KindMap
	KindNode
	KindRelationship
	KindPath
)

// Point is a spatial value tagged with a spatial reference system ID,
// generalizing apoc/spatial's Latitude/Longitude/Height pair to Neo4j's
// SRID-tagged Point2D/Point3D model (Z present only for Point3D).
type Point struct {
	SRID int
	X    float64
	Y    float64
	Z    *float64
}

// Value is the Graph Value tagged union. Exactly one of the typed fields is
// meaningful for a given Kind; which one is documented per constant above.
type Value struct {
	Kind ValueKind

	Bool    bool
	Int64   int64
	Float64 float64
	String  string
	Bytes   []byte

	// Temporal variants all reuse time.Time; LocalDate/LocalTime/
	// LocalDateTime carry only the relevant component and are formatted
	// accordingly by the serializer.
	Time time.Time

	// Duration carries nanosecond precision.
	Duration time.Duration

	Point Point

	List []Value
	Map  map[string]Value

	Node         *Node
	Relationship *Relationship
	Path         *Path
}

// Null is the canonical Null value.
var Null = Value{Kind: KindNull}

// Node mirrors storage.Node's shape for export purposes: an opaque element
// ID, a deduplicated label set, and a property map of Graph Values.
type Node struct {
	ElementID string
	Labels    []string
	// StableID is the content-addressed id from idhash.go, populated only
	// when Config.EnableHashedIDs is set.
	StableID   string
	Properties map[string]Value
}

// Relationship mirrors storage.Edge for export purposes.
type Relationship struct {
	ElementID      string
	Type           string
	StartElementID string
	EndElementID   string
	StableID       string
	Properties     map[string]Value
}

// Path is an ordered sequence alternating Node, Relationship, Node, ...; it
// always has at least one node.
type Path struct {
	Nodes         []*Node
	Relationships []*Relationship
}
