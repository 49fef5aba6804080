package service

import (
	"fmt"
	"strings"

	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/project"
	"github.com/piwi3910/optimystic/internal/templates"
)

// ListProjects returns the saved workspaces, newest first.
func (s *Service) ListProjects() ([]project.Summary, error) {
	return s.projects.List()
}

// GetProject loads one workspace.
func (s *Service) GetProject(id string) (model.Project, error) {
	return s.projects.Get(id)
}

// SaveProject stores a workspace. New workspaces inherit the configured
// solve defaults for settings they leave unset.
func (s *Service) SaveProject(p model.Project) (model.Project, error) {
	if p.ID == "" && p.Settings == (model.CutSettings{}) {
		s.cfg.ApplyToSettings(&p.Settings)
		p.Settings.Sense = model.SenseMinimize
	}
	if p.Mode == "" {
		p.Mode = model.ModeCustom
	}
	return s.projects.Save(p)
}

// DeleteProject removes a workspace.
func (s *Service) DeleteProject(id string) error {
	return s.projects.Delete(id)
}

// Inventory returns the stock presets, creating the default set on first use.
func (s *Service) Inventory() (model.Inventory, error) {
	s.invMu.Lock()
	defer s.invMu.Unlock()
	return project.LoadInventory(s.invPath)
}

// Preset returns the stock preset with the given id.
func (s *Service) Preset(id string) (model.StockPreset, error) {
	inv, err := s.Inventory()
	if err != nil {
		return model.StockPreset{}, err
	}
	p := inv.FindStockByID(id)
	if p == nil {
		return model.StockPreset{}, fmt.Errorf("%w: stock preset %q", project.ErrNotFound, id)
	}
	return *p, nil
}

// AddPresets merges presets into the inventory by name and returns the
// updated inventory with the number of presets added.
func (s *Service) AddPresets(presets []model.StockPreset) (model.Inventory, int, error) {
	s.invMu.Lock()
	defer s.invMu.Unlock()

	inv, err := project.LoadInventory(s.invPath)
	if err != nil {
		return model.Inventory{}, 0, err
	}
	for i := range presets {
		if strings.TrimSpace(presets[i].Name) == "" || presets[i].Length <= 0 {
			return model.Inventory{}, 0, fmt.Errorf("%w: preset %q needs a name and a positive length", templates.ErrInvalidInput, presets[i].Name)
		}
		if presets[i].ID == "" {
			presets[i] = model.NewStockPreset(presets[i].Name, presets[i].Length, presets[i].Cost, presets[i].Material)
		}
	}
	added := inv.Merge(model.Inventory{Stocks: presets})
	if added > 0 {
		if err := project.SaveInventory(s.invPath, inv); err != nil {
			return model.Inventory{}, 0, err
		}
	}
	return inv, added, nil
}
