package rules

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates the requested rule group doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
)

// mapSQLiteError converts SQLite errors to custom error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

// Store provides access to persisted rule groups.
type Store struct {
	db *sql.DB
}

// NewStore creates a new rule group store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ruleJSON is the stable on-disk shape of one rule.
type ruleJSON struct {
	Operator    string           `json:"operator,omitempty"`
	Action      string           `json:"action"`
	FirstValue  [2]int           `json:"firstValue"`
	LastValue   *[2]int          `json:"lastValue,omitempty"`
	CustomValue *customValueJSON `json:"customValue,omitempty"`
}

type customValueJSON struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func marshalRule(r Rule) ([]byte, error) {
	rj := ruleJSON{
		Action:     r.Action.String(),
		FirstValue: [2]int{r.FirstValue.Application, r.FirstValue.Property},
	}
	if r.Operator != nil {
		rj.Operator = r.Operator.String()
	}
	if r.LastValue != nil {
		rj.LastValue = &[2]int{r.LastValue.Application, r.LastValue.Property}
	}
	if r.CustomValue != nil {
		rj.CustomValue = &customValueJSON{Type: r.CustomValue.Type.String(), Value: r.CustomValue.Value}
	}
	return json.Marshal(rj)
}

func unmarshalRule(data []byte) (Rule, error) {
	var rj ruleJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return Rule{}, err
	}
	action, err := ParseComparison(rj.Action)
	if err != nil {
		return Rule{}, err
	}
	r := Rule{
		Action:     action,
		FirstValue: PropRef{Application: rj.FirstValue[0], Property: rj.FirstValue[1]},
	}
	if rj.Operator != "" {
		op, err := ParseOperator(rj.Operator)
		if err != nil {
			return Rule{}, err
		}
		r.Operator = &op
	}
	if rj.LastValue != nil {
		r.LastValue = &PropRef{Application: rj.LastValue[0], Property: rj.LastValue[1]}
	}
	if rj.CustomValue != nil {
		t, err := ParseCustomValueType(rj.CustomValue.Type)
		if err != nil {
			return Rule{}, err
		}
		r.CustomValue = &CustomValue{Type: t, Value: rj.CustomValue.Value}
	}
	return r, nil
}

// CreateGroup inserts a rule group and its rules in one transaction.
// Sets ID, CreatedAt, and UpdatedAt on the struct.
func (s *Store) CreateGroup(g *RuleGroup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	result, err := tx.Exec(`
		INSERT INTO rule_groups (name, description, media_type, library_id, is_active, action,
			use_rules, radarr_profile_id, sonarr_profile_id, cron_schedule, collection_id,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Name, g.Description, string(g.MediaType), g.LibraryID, g.IsActive, int(g.Action),
		g.UseRules, g.RadarrProfileID, g.SonarrProfileID, g.CronSchedule, g.CollectionID,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert rule group: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	if err := insertRules(tx, id, g.Sections); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rule group: %w", err)
	}
	g.ID = id
	g.CreatedAt = now
	g.UpdatedAt = now
	return nil
}

func insertRules(tx *sql.Tx, groupID int64, sections []Section) error {
	for _, section := range sections {
		for pos, rule := range section.Rules {
			data, err := marshalRule(rule)
			if err != nil {
				return fmt.Errorf("marshal rule: %w", err)
			}
			if _, err := tx.Exec(`
				INSERT INTO rules (rule_group_id, section, position, rule_json)
				VALUES (?, ?, ?, ?)`,
				groupID, section.ID, pos, string(data),
			); err != nil {
				return fmt.Errorf("insert rule: %w", mapSQLiteError(err))
			}
		}
	}
	return nil
}

// GetGroup retrieves a rule group with its sections by ID.
// Returns ErrNotFound if the group does not exist.
func (s *Store) GetGroup(id int64) (*RuleGroup, error) {
	g := &RuleGroup{}
	var mediaType string
	var action int
	err := s.db.QueryRow(`
		SELECT id, name, description, media_type, library_id, is_active, action, use_rules,
			radarr_profile_id, sonarr_profile_id, cron_schedule, collection_id, created_at, updated_at
		FROM rule_groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.Description, &mediaType, &g.LibraryID, &g.IsActive, &action,
		&g.UseRules, &g.RadarrProfileID, &g.SonarrProfileID, &g.CronSchedule, &g.CollectionID,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get rule group %d: %w", id, mapSQLiteError(err))
	}
	g.MediaType = MediaType(mediaType)
	g.Action = EnforcementAction(action)

	if err := s.loadSections(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) loadSections(g *RuleGroup) error {
	rows, err := s.db.Query(`
		SELECT section, rule_json FROM rules
		WHERE rule_group_id = ? ORDER BY section, position`, g.ID)
	if err != nil {
		return fmt.Errorf("list rules for group %d: %w", g.ID, err)
	}
	defer func() { _ = rows.Close() }()

	g.Sections = nil
	for rows.Next() {
		var section int
		var data string
		if err := rows.Scan(&section, &data); err != nil {
			return fmt.Errorf("scan rule: %w", err)
		}
		rule, err := unmarshalRule([]byte(data))
		if err != nil {
			return fmt.Errorf("unmarshal rule for group %d: %w", g.ID, err)
		}
		if n := len(g.Sections); n == 0 || g.Sections[n-1].ID != section {
			g.Sections = append(g.Sections, Section{ID: section})
		}
		last := &g.Sections[len(g.Sections)-1]
		last.Rules = append(last.Rules, rule)
	}
	return rows.Err()
}

// GroupFilter narrows ListGroups results.
type GroupFilter struct {
	IsActive  *bool
	LibraryID *string
}

// ListGroups returns rule groups matching the filter, with sections loaded.
func (s *Store) ListGroups(f GroupFilter) ([]*RuleGroup, error) {
	var conditions []string
	var args []any
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	if f.LibraryID != nil {
		conditions = append(conditions, "library_id = ?")
		args = append(args, *f.LibraryID)
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := s.db.Query(`
		SELECT id, name, description, media_type, library_id, is_active, action, use_rules,
			radarr_profile_id, sonarr_profile_id, cron_schedule, collection_id, created_at, updated_at
		FROM rule_groups `+whereClause+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list rule groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []*RuleGroup
	for rows.Next() {
		g := &RuleGroup{}
		var mediaType string
		var action int
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &mediaType, &g.LibraryID, &g.IsActive,
			&action, &g.UseRules, &g.RadarrProfileID, &g.SonarrProfileID, &g.CronSchedule,
			&g.CollectionID, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rule group: %w", err)
		}
		g.MediaType = MediaType(mediaType)
		g.Action = EnforcementAction(action)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule groups: %w", err)
	}

	for _, g := range groups {
		if err := s.loadSections(g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// UpdateGroup updates a rule group and replaces its rules.
// Returns ErrNotFound if the group does not exist.
func (s *Store) UpdateGroup(g *RuleGroup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	result, err := tx.Exec(`
		UPDATE rule_groups SET name = ?, description = ?, media_type = ?, library_id = ?,
			is_active = ?, action = ?, use_rules = ?, radarr_profile_id = ?, sonarr_profile_id = ?,
			cron_schedule = ?, collection_id = ?, updated_at = ?
		WHERE id = ?`,
		g.Name, g.Description, string(g.MediaType), g.LibraryID, g.IsActive, int(g.Action),
		g.UseRules, g.RadarrProfileID, g.SonarrProfileID, g.CronSchedule, g.CollectionID,
		now, g.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule group %d: %w", g.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update rule group %d: %w", g.ID, ErrNotFound)
	}

	if _, err := tx.Exec("DELETE FROM rules WHERE rule_group_id = ?", g.ID); err != nil {
		return fmt.Errorf("clear rules for group %d: %w", g.ID, err)
	}
	if err := insertRules(tx, g.ID, g.Sections); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rule group: %w", err)
	}
	g.UpdatedAt = now
	return nil
}

// DeleteGroup removes a rule group and its rules.
// This operation is idempotent - no error is returned if the group does not exist.
func (s *Store) DeleteGroup(id int64) error {
	if _, err := s.db.Exec("DELETE FROM rule_groups WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete rule group %d: %w", id, mapSQLiteError(err))
	}
	return nil
}
