// Package fixture loads YAML seed data into a document store.
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/arcview/internal/repository"
)

// Fixture is a set of project trees plus flat universal records.
type Fixture struct {
	Projects  []Project        `yaml:"projects"`
	Universal []map[string]any `yaml:"universal"`
}

type Project struct {
	ID         string         `yaml:"id"`
	Fields     map[string]any `yaml:",inline"`
	StudyAreas []StudyArea    `yaml:"studyAreas"`
}

type StudyArea struct {
	ID         string         `yaml:"id"`
	Fields     map[string]any `yaml:",inline"`
	StratUnits []StratUnit    `yaml:"stratUnits"`
}

type StratUnit struct {
	ID         string         `yaml:"id"`
	Fields     map[string]any `yaml:",inline"`
	Containers []Container    `yaml:"containers"`
}

type Container struct {
	ID     string         `yaml:"id"`
	Fields map[string]any `yaml:",inline"`
	Groups []Group        `yaml:"groups"`
}

type Group struct {
	ID      string           `yaml:"id"`
	Fields  map[string]any   `yaml:",inline"`
	Objects []map[string]any `yaml:"objects"`
}

// Summary counts the documents written by Apply.
type Summary struct {
	Projects  int `json:"projects"`
	Nodes     int `json:"nodes"`
	Objects   int `json:"objects"`
	Universal int `json:"universal"`
}

//go:embed sample.yaml
var sample []byte

// Sample returns the bundled demo fixture.
func Sample() (*Fixture, error) {
	return Parse(sample)
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixture YAML.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Apply writes every document of the fixture. Tree nodes require ids;
// universal records without an id get a random one.
func Apply(ctx context.Context, w repository.DocumentWriter, f *Fixture) (Summary, error) {
	var sum Summary

	put := func(collectionPath, id string, data map[string]any) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: document under %s has no id", repository.ErrInvalidInput, collectionPath)
		}
		if err := w.PutDocument(ctx, collectionPath, id, data); err != nil {
			return fmt.Errorf("writing %s: %w", repository.DocumentPath(collectionPath, id), err)
		}
		return nil
	}

	for _, p := range f.Projects {
		if err := put(repository.CollectionProjects, p.ID, p.Fields); err != nil {
			return sum, err
		}
		sum.Projects++

		for _, sa := range p.StudyAreas {
			if err := put(repository.StudyAreasPath(p.ID), sa.ID, sa.Fields); err != nil {
				return sum, err
			}
			sum.Nodes++

			for _, su := range sa.StratUnits {
				if err := put(repository.StratUnitsPath(p.ID, sa.ID), su.ID, su.Fields); err != nil {
					return sum, err
				}
				sum.Nodes++

				for _, c := range su.Containers {
					if err := put(repository.ContainersPath(p.ID, sa.ID, su.ID), c.ID, c.Fields); err != nil {
						return sum, err
					}
					sum.Nodes++

					for _, g := range c.Groups {
						if err := put(repository.GroupsPath(p.ID, sa.ID, su.ID, c.ID), g.ID, g.Fields); err != nil {
							return sum, err
						}
						sum.Nodes++

						objectsPath := repository.ObjectsPath(p.ID, sa.ID, su.ID, c.ID, g.ID)
						for _, obj := range g.Objects {
							id, data := splitID(obj)
							if err := put(objectsPath, id, data); err != nil {
								return sum, err
							}
							sum.Objects++
						}
					}
				}
			}
		}
	}

	for _, rec := range f.Universal {
		id, data := splitID(rec)
		if id == "" {
			id = uuid.NewString()
		}
		if err := put(repository.CollectionUniversal, id, data); err != nil {
			return sum, err
		}
		sum.Universal++
	}

	return sum, nil
}

// splitID removes the id key from a document body.
func splitID(doc map[string]any) (string, map[string]any) {
	data := make(map[string]any, len(doc))
	var id string
	for k, v := range doc {
		if k == "id" {
			id = fmt.Sprint(v)
			continue
		}
		data[k] = v
	}
	return id, data
}
