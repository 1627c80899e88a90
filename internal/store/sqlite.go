package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/trip/internal/domain"
)

//go:embed schema.sql
var schema string

var (
	// ErrNotFound is returned when an update or delete targets an unknown id
	ErrNotFound = errors.New("spot not found")
	// ErrInvalid is returned for writes naming unknown columns or carrying bad values
	ErrInvalid = errors.New("invalid spot data")
)

// Store is the spots table backed by sqlite
type Store struct {
	db *sqlx.DB
}

// record is the on-disk shape of a row; list columns are JSON text
type record struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Description  string  `db:"description"`
	Notes        string  `db:"notes"`
	Images       string  `db:"images"`
	Lat          float64 `db:"lat"`
	Lng          float64 `db:"lng"`
	Day          string  `db:"day"`
	Tags         string  `db:"tags"`
	OpeningHours string  `db:"opening_hours"`
	SortOrder    int     `db:"sort_order"`
	Address      string  `db:"address"`
	IsVisited    bool    `db:"is_visited"`
}

const selectColumns = "id, name, description, notes, images, lat, lng, day, tags, opening_hours, sort_order, address, is_visited"

// New opens (and if needed creates) the database at dbPath
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY between our own goroutines
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Select returns every row ordered by sort_order
func (s *Store) Select(ctx context.Context) ([]domain.Row, error) {
	var recs []record
	err := s.db.SelectContext(ctx, &recs,
		"SELECT "+selectColumns+" FROM spots ORDER BY sort_order ASC, rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("select spots: %w", err)
	}

	rows := make([]domain.Row, 0, len(recs))
	for _, rec := range recs {
		row, err := rec.row()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Get returns a single row by id
func (s *Store) Get(ctx context.Context, id string) (domain.Row, error) {
	var rec record
	err := s.db.GetContext(ctx, &rec, "SELECT "+selectColumns+" FROM spots WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Row{}, ErrNotFound
	}
	if err != nil {
		return domain.Row{}, fmt.Errorf("get spot: %w", err)
	}
	return rec.row()
}

// Insert stores new rows, assigning ids, and returns them as stored
func (s *Store) Insert(ctx context.Context, rows []domain.Row) ([]domain.Row, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	inserted := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		row.ID = uuid.New().String()
		rec, err := newRecord(row)
		if err != nil {
			return nil, err
		}
		_, err = tx.NamedExecContext(ctx,
			"INSERT INTO spots ("+selectColumns+") VALUES (:id, :name, :description, :notes, :images, :lat, :lng, :day, :tags, :opening_hours, :sort_order, :address, :is_visited)",
			rec,
		)
		if err != nil {
			return nil, fmt.Errorf("insert spot: %w", err)
		}
		inserted = append(inserted, normalizeRow(row))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return inserted, nil
}

// Update writes only the given columns of the row with the given id
func (s *Store) Update(ctx context.Context, id string, columns map[string]any) error {
	if len(columns) == 0 {
		return fmt.Errorf("update spot: %w: no columns", ErrInvalid)
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		if name == domain.ColID {
			return fmt.Errorf("update spot: %w: id is immutable", ErrInvalid)
		}
		val, err := encodeColumn(name, columns[name])
		if err != nil {
			return err
		}
		sets = append(sets, name+" = ?")
		args = append(args, val)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE spots SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update spot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert inserts or updates rows keyed by id. Only the listed columns are
// written on conflict; an empty list means every column.
func (s *Store) Upsert(ctx context.Context, rows []domain.Row, columns []string) error {
	cols, err := upsertColumns(columns)
	if err != nil {
		return err
	}

	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	for i, c := range cols {
		placeholders[i] = ":" + c
		if c != domain.ColID {
			updates = append(updates, c+" = excluded."+c)
		}
	}
	query := fmt.Sprintf("INSERT INTO spots (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		rec, err := newRecord(row)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
			return fmt.Errorf("upsert spot %s: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Delete removes the row with the given id
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM spots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func upsertColumns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		return domain.Columns, nil
	}
	known := make(map[string]bool, len(domain.Columns))
	for _, c := range domain.Columns {
		known[c] = true
	}
	cols := []string{domain.ColID}
	for _, c := range columns {
		if !known[c] {
			return nil, fmt.Errorf("upsert: %w: unknown column %q", ErrInvalid, c)
		}
		if c != domain.ColID {
			cols = append(cols, c)
		}
	}
	return cols, nil
}

func newRecord(row domain.Row) (record, error) {
	if !domain.Day(row.Day).Valid() {
		return record{}, fmt.Errorf("%w: invalid day %q", ErrInvalid, row.Day)
	}
	images, err := json.Marshal(nonNil(row.Images))
	if err != nil {
		return record{}, fmt.Errorf("encode images: %w", err)
	}
	tags, err := json.Marshal(nonNil(row.Tags))
	if err != nil {
		return record{}, fmt.Errorf("encode tags: %w", err)
	}
	return record{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Notes:        row.Notes,
		Images:       string(images),
		Lat:          row.Lat,
		Lng:          row.Lng,
		Day:          row.Day,
		Tags:         string(tags),
		OpeningHours: row.OpeningHours,
		SortOrder:    row.SortOrder,
		Address:      row.Address,
		IsVisited:    row.IsVisited,
	}, nil
}

func (r record) row() (domain.Row, error) {
	row := domain.Row{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Notes:        r.Notes,
		Lat:          r.Lat,
		Lng:          r.Lng,
		Day:          r.Day,
		OpeningHours: r.OpeningHours,
		SortOrder:    r.SortOrder,
		Address:      r.Address,
		IsVisited:    r.IsVisited,
	}
	if err := json.Unmarshal([]byte(r.Images), &row.Images); err != nil {
		return domain.Row{}, fmt.Errorf("decode images of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Tags), &row.Tags); err != nil {
		return domain.Row{}, fmt.Errorf("decode tags of %s: %w", r.ID, err)
	}
	return normalizeRow(row), nil
}

// encodeColumn converts a loosely typed column value (as decoded from JSON or
// built by a Patch) into the value sqlite stores
func encodeColumn(name string, v any) (any, error) {
	switch name {
	case domain.ColImages, domain.ColTags:
		list, err := toStrings(v)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", ErrInvalid, name, err)
		}
		b, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", ErrInvalid, name, err)
		}
		return string(b), nil
	case domain.ColLat, domain.ColLng:
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", ErrInvalid, name, err)
		}
		return f, nil
	case domain.ColSortOrder:
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", ErrInvalid, name, err)
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: column %s: %v is not an integer", ErrInvalid, name, v)
		}
		return int64(f), nil
	case domain.ColIsVisited:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: column %s: want bool, got %T", ErrInvalid, name, v)
		}
		return b, nil
	case domain.ColDay:
		s, ok := v.(string)
		if !ok || !domain.Day(s).Valid() {
			return nil, fmt.Errorf("%w: column %s: invalid day %v", ErrInvalid, name, v)
		}
		return s, nil
	case domain.ColName, domain.ColDescription, domain.ColNotes, domain.ColOpeningHours, domain.ColAddress:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: column %s: want string, got %T", ErrInvalid, name, v)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: unknown column %q", ErrInvalid, name)
}

func toStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return nonNil(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("want string list, got element %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("want string list, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	}
	return 0, fmt.Errorf("want number, got %T", v)
}

func normalizeRow(r domain.Row) domain.Row {
	r.Images = nonNil(r.Images)
	r.Tags = nonNil(r.Tags)
	return r
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
