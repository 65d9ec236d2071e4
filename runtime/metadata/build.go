package metadata

import (
	"fmt"
	"sort"
	"time"

	"github.com/conduit-lang/manifold/pkg/apps"
	"github.com/conduit-lang/manifold/pkg/orm/schema"
	"github.com/conduit-lang/manifold/pkg/web/router"
)

// Build snapshots a registry whose models are loaded. routes may be nil.
func Build(reg *apps.Registry, routes []*router.RouteInfo) (*Manifest, error) {
	if err := reg.CheckModelsReady(); err != nil {
		return nil, err
	}

	descriptors, err := reg.Descriptors()
	if err != nil {
		return nil, err
	}
	models, err := reg.Models()
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Version:    SchemaVersion,
		Framework:  apps.Version,
		Generated:  time.Now().UTC(),
		RunID:      reg.RunID(),
		Components: make([]ComponentMetadata, 0, len(descriptors)),
		Entities:   make([]EntityMetadata, 0, len(models)),
	}

	for _, d := range descriptors {
		m.Components = append(m.Components, componentMetadata(d))
	}
	for _, model := range models {
		m.Entities = append(m.Entities, entityMetadata(model))
	}
	for _, r := range routes {
		m.Routes = append(m.Routes, routeMetadata(r))
	}
	m.Dependencies = dependencyGraph(reg.Schema())

	return m, nil
}

func componentMetadata(d *apps.Descriptor) ComponentMetadata {
	c := ComponentMetadata{
		Label:  d.Label(),
		Name:   d.Name(),
		Path:   d.Path(),
		Config: fmt.Sprintf("%T", d.Config()),
	}

	for _, model := range d.Entities() {
		c.Entities = append(c.Entities, model.Key())
	}
	sort.Strings(c.Entities)

	if ns := d.Namespace(); ns != nil {
		for name := range ns.Exports {
			c.Exports = append(c.Exports, name)
		}
		sort.Strings(c.Exports)
	}
	return c
}

func entityMetadata(model *schema.Metadata) EntityMetadata {
	e := EntityMetadata{
		Key:        model.Key(),
		Type:       model.TypeName,
		Component:  model.OwningLabel,
		Namespace:  model.Namespace,
		Table:      model.Table,
		PrimaryKey: model.PrimaryKey,
	}
	if model.Type != nil {
		e.Type = model.Type.String()
	}

	for _, f := range model.Fields() {
		e.Fields = append(e.Fields, fieldMetadata(model, f))
	}
	return e
}

func fieldMetadata(model *schema.Metadata, f *schema.Field) FieldMetadata {
	fm := FieldMetadata{
		Name:     f.Name,
		Kind:     f.Kind.String(),
		Nullable: f.Nullable,
	}
	if f.Kind.HasColumn() {
		fm.Column = f.Column()
	}
	if f.PrimaryKey {
		fm.Tags = append(fm.Tags, "primary")
	}
	if f.Generated {
		fm.Tags = append(fm.Tags, "generated")
	}
	if f.Unique {
		fm.Tags = append(fm.Tags, "unique")
	}

	if !f.IsRelation() {
		fm.Type = f.Type.String()
		return fm
	}

	if target, err := model.ResolveRelation(f.Name); err == nil {
		fm.Target = target.Key()
	} else {
		fm.Target = f.Target
		fm.Unresolved = true
	}
	if f.Kind == schema.KindForeignKey || f.Kind == schema.KindOneToOne {
		fm.OnDelete = f.OnDelete.String()
	}
	return fm
}

func routeMetadata(r *router.RouteInfo) RouteMetadata {
	rm := RouteMetadata{
		Method:    r.Method,
		Path:      r.Pattern,
		Name:      r.Name,
		Component: r.Component,
	}
	for _, p := range r.Parameters {
		rm.Parameters = append(rm.Parameters, p.Name+":"+p.Type)
	}
	return rm
}

// dependencyGraph records every resolved forward relation as an edge. The
// creation order is left empty when foreign keys form a cycle.
func dependencyGraph(models *schema.Registry) DependencyGraph {
	g := DependencyGraph{Nodes: []string{}, Edges: []DependencyEdge{}}

	for _, model := range models.All() {
		g.Nodes = append(g.Nodes, model.Key())
		for _, f := range model.Fields() {
			if !f.IsRelation() || f.Kind.IsReverse() {
				continue
			}
			target, err := model.ResolveRelation(f.Name)
			if err != nil {
				continue
			}
			g.Edges = append(g.Edges, DependencyEdge{
				From:         model.Key(),
				To:           target.Key(),
				Relationship: f.Kind.String(),
				Field:        f.Name,
			})
		}
	}

	if ordered, err := models.DependencyOrder(); err == nil {
		for _, model := range ordered {
			g.Order = append(g.Order, model.Key())
		}
	}
	return g
}
