package types

import "fmt"

const (
	ModelTypePointCloud    = "point_cloud"
	ModelTypeFiniteElement = "fe"
	ModelTypeGraph         = "graph"
)

// StructuralModel is a geometric model of the monitored structure. Each model
// type is a fixed set of named components, every component a free-form table.
type StructuralModel interface {
	ModelType() string
	ComponentNames() []string
	Component(name string) (*Table, bool)
	SetComponent(name string, table *Table) error
}

// NewStructuralModel returns an empty model of the given type.
func NewStructuralModel(modelType string) (StructuralModel, error) {
	switch modelType {
	case ModelTypePointCloud:
		return &PointCloud{}, nil
	case ModelTypeFiniteElement:
		return &FiniteElementModel{}, nil
	case ModelTypeGraph:
		return &GraphModel{}, nil
	default:
		return nil, fmt.Errorf("unknown structural model type %q", modelType)
	}
}

// EqualStructuralModels compares two models by type and components.
func EqualStructuralModels(a, b StructuralModel) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.ModelType() != b.ModelType() {
		return false
	}
	for _, name := range a.ComponentNames() {
		ca, _ := a.Component(name)
		cb, _ := b.Component(name)
		if !ca.Equal(cb) {
			return false
		}
	}
	return true
}

type PointCloud struct {
	PointCloud *Table
}

func (m *PointCloud) ModelType() string { return ModelTypePointCloud }

func (m *PointCloud) ComponentNames() []string { return []string{"point_cloud"} }

func (m *PointCloud) Component(name string) (*Table, bool) {
	if name == "point_cloud" {
		return m.PointCloud, m.PointCloud != nil
	}
	return nil, false
}

func (m *PointCloud) SetComponent(name string, table *Table) error {
	if name != "point_cloud" {
		return fmt.Errorf("point cloud model has no component %q", name)
	}
	m.PointCloud = table
	return nil
}

type FiniteElementModel struct {
	FENode       *Table
	FEElem       *Table
	FEConnection *Table
	FEConstraint *Table
}

func (m *FiniteElementModel) ModelType() string { return ModelTypeFiniteElement }

func (m *FiniteElementModel) ComponentNames() []string {
	return []string{"fe_node", "fe_elem", "fe_connection", "fe_constraint"}
}

func (m *FiniteElementModel) Component(name string) (*Table, bool) {
	switch name {
	case "fe_node":
		return m.FENode, m.FENode != nil
	case "fe_elem":
		return m.FEElem, m.FEElem != nil
	case "fe_connection":
		return m.FEConnection, m.FEConnection != nil
	case "fe_constraint":
		return m.FEConstraint, m.FEConstraint != nil
	}
	return nil, false
}

func (m *FiniteElementModel) SetComponent(name string, table *Table) error {
	switch name {
	case "fe_node":
		m.FENode = table
	case "fe_elem":
		m.FEElem = table
	case "fe_connection":
		m.FEConnection = table
	case "fe_constraint":
		m.FEConstraint = table
	default:
		return fmt.Errorf("finite element model has no component %q", name)
	}
	return nil
}

type GraphModel struct {
	GraphNode *Table
	GraphEdge *Table
}

func (m *GraphModel) ModelType() string { return ModelTypeGraph }

func (m *GraphModel) ComponentNames() []string {
	return []string{"graph_node", "graph_edge"}
}

func (m *GraphModel) Component(name string) (*Table, bool) {
	switch name {
	case "graph_node":
		return m.GraphNode, m.GraphNode != nil
	case "graph_edge":
		return m.GraphEdge, m.GraphEdge != nil
	}
	return nil, false
}

func (m *GraphModel) SetComponent(name string, table *Table) error {
	switch name {
	case "graph_node":
		m.GraphNode = table
	case "graph_edge":
		m.GraphEdge = table
	default:
		return fmt.Errorf("graph model has no component %q", name)
	}
	return nil
}
