package core

import "fmt"

// OPC UA namespace and folder for the arm address space
const (
	NamespacePickPlace uint16 = 2
	FolderPickPlace           = "PickPlaceArm"
)

// NodeDefinition describes an OPC UA variable node
type NodeDefinition struct {
	Name         string      // Node name (e.g., "JointQ0")
	DisplayName  string      // Human-readable name
	Description  string      // Description of the node
	DataType     DataType    // Data type (Double, Int32, String, etc.)
	Unit         string      // Engineering unit (rad, deg, m, etc.)
	InitialValue interface{} // Initial/default value
}

// DataType represents OPC UA data types
type DataType int

const (
	DataTypeDouble DataType = iota
	DataTypeFloat
	DataTypeInt32
	DataTypeInt64
	DataTypeString
	DataTypeBool
	DataTypeDateTime
)

func (d DataType) String() string {
	switch d {
	case DataTypeDouble:
		return "Double"
	case DataTypeFloat:
		return "Float"
	case DataTypeInt32:
		return "Int32"
	case DataTypeInt64:
		return "Int64"
	case DataTypeString:
		return "String"
	case DataTypeBool:
		return "Boolean"
	case DataTypeDateTime:
		return "DateTime"
	default:
		return fmt.Sprintf("DataType(%d)", int(d))
	}
}
