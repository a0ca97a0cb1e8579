package database

import (
	"fmt"
	"strings"
)

// ErrResourceNotFound is returned when no resource of the vampire matches the given id.
var ErrResourceNotFound = fmt.Errorf("resource %w", ErrNotFound)

// Resource is an asset the vampire holds.
type Resource struct {
	ID          int64  `json:"id"`
	VampireID   int64  `json:"vampire_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Stationary  bool   `json:"stationary"`
	Lost        bool   `json:"lost"`
}

// ResourceFilter narrows ListResources. The zero value returns every resource.
type ResourceFilter struct {
	ExcludeLost bool

	// StationaryOnly and MobileOnly are mutually exclusive; StationaryOnly wins.
	StationaryOnly bool
	MobileOnly     bool
}

// CreateResource adds a new resource to the vampire.
func (d *Database) CreateResource(vampireID int64, name, description string, stationary bool) (*Resource, error) {
	r := &Resource{
		VampireID:   vampireID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Stationary:  stationary,
	}
	id, err := d.insert(d.db,
		`INSERT INTO resources (vampire_id, name, description, stationary) VALUES (?, ?, ?, ?)`,
		r.VampireID, r.Name, r.Description, r.Stationary)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	r.ID = id
	return r, nil
}

// GetResource retrieves one of the vampire's resources.
func (d *Database) GetResource(vampireID, resourceID int64) (*Resource, error) {
	resources, err := d.scanResources(
		`SELECT id, vampire_id, name, description, stationary, lost FROM resources WHERE id = ? AND vampire_id = ?`,
		resourceID, vampireID)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, ErrResourceNotFound
	}
	return resources[0], nil
}

// ListResources returns the vampire's resources in creation order.
func (d *Database) ListResources(vampireID int64, f ResourceFilter) ([]*Resource, error) {
	query := `SELECT id, vampire_id, name, description, stationary, lost FROM resources WHERE vampire_id = ?`
	args := []any{vampireID}
	if f.ExcludeLost {
		query += ` AND lost = ?`
		args = append(args, false)
	}
	switch {
	case f.StationaryOnly:
		query += ` AND stationary = ?`
		args = append(args, true)
	case f.MobileOnly:
		query += ` AND stationary = ?`
		args = append(args, false)
	}
	query += ` ORDER BY id`
	return d.scanResources(query, args...)
}

func (d *Database) scanResources(query string, args ...any) ([]*Resource, error) {
	rows, err := d.query(d.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []*Resource
	for rows.Next() {
		r := &Resource{}
		if err := rows.Scan(&r.ID, &r.VampireID, &r.Name, &r.Description, &r.Stationary, &r.Lost); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// SetResourceLost strikes out a resource.
func (d *Database) SetResourceLost(vampireID, resourceID int64) error {
	result, err := d.exec(d.db,
		`UPDATE resources SET lost = ? WHERE id = ? AND vampire_id = ?`,
		true, resourceID, vampireID)
	if err != nil {
		return fmt.Errorf("failed to lose resource: %w", err)
	}
	return requireRow(result, ErrResourceNotFound)
}
