// Package persistence provides SQLite-backed snapshots of the simulation:
// world state, memories, goals, and recent events survive a restart.
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/goals"
	"github.com/talgya/villagesim/internal/memory"
	"github.com/talgya/villagesim/internal/world"
)

// DB wraps a SQLite connection for snapshot storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		traits TEXT NOT NULL,
		prompt TEXT NOT NULL,
		location_id TEXT NOT NULL,
		inventory TEXT NOT NULL,
		happiness INTEGER NOT NULL,
		mood_energy INTEGER NOT NULL,
		hunger REAL NOT NULL,
		energy REAL NOT NULL,
		social REAL NOT NULL,
		state TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		connections TEXT NOT NULL,
		objects TEXT NOT NULL,
		capacity INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS relationships (
		agent_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		type TEXT NOT NULL,
		score INTEGER NOT NULL,
		history TEXT NOT NULL,
		PRIMARY KEY (agent_id, target_id)
	);
	CREATE TABLE IF NOT EXISTS memories (
		agent_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		significance INTEGER NOT NULL,
		base_significance INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		compressed INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS goals (
		agent_id TEXT NOT NULL,
		type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		priority INTEGER NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events (
		type TEXT NOT NULL,
		summary TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		actors TEXT NOT NULL,
		location_id TEXT NOT NULL,
		detail TEXT NOT NULL,
		significance INTEGER NOT NULL,
		data TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	_, err := db.conn.Exec(schema)
	return err
}

// Snapshot is everything saved and restored across runs.
type Snapshot struct {
	Clock         world.Clock
	Agents        []world.Agent
	Locations     []world.Location
	Relationships []world.Relationship
	Memories      []memory.Memory
	Goals         []goals.Goal
	Events        []events.Event
}

// HasSnapshot reports whether a previous run saved state.
func (db *DB) HasSnapshot() bool {
	var v string
	err := db.conn.Get(&v, `SELECT value FROM meta WHERE key = 'last_tick'`)
	return err == nil
}

// SaveSnapshot replaces the stored state in a single transaction. A failure
// rolls the whole snapshot back.
func (db *DB) SaveSnapshot(snap Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"agents", "locations", "relationships", "memories", "goals", "events"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, a := range snap.Agents {
		traits, _ := json.Marshal(a.Traits)
		inv, _ := json.Marshal(a.Inventory)
		_, err := tx.Exec(`INSERT INTO agents
			(id, name, traits, prompt, location_id, inventory, happiness, mood_energy, hunger, energy, social, state)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, string(traits), a.Prompt, a.LocationID, string(inv),
			a.Mood.Happiness, a.Mood.Energy, a.Needs.Hunger, a.Needs.Energy, a.Needs.Social, a.State.String())
		if err != nil {
			return fmt.Errorf("save agent %s: %w", a.ID, err)
		}
	}

	for _, l := range snap.Locations {
		conns, _ := json.Marshal(l.Connections)
		objs, _ := json.Marshal(l.Objects)
		_, err := tx.Exec(`INSERT INTO locations
			(id, name, description, connections, objects, capacity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			l.ID, l.Name, l.Description, string(conns), string(objs), l.Capacity)
		if err != nil {
			return fmt.Errorf("save location %s: %w", l.ID, err)
		}
	}

	for _, r := range snap.Relationships {
		hist, _ := json.Marshal(r.History)
		_, err := tx.Exec(`INSERT INTO relationships
			(agent_id, target_id, type, score, history) VALUES (?, ?, ?, ?, ?)`,
			r.AgentID, r.TargetID, r.Type, r.Score, string(hist))
		if err != nil {
			return fmt.Errorf("save relationship %s→%s: %w", r.AgentID, r.TargetID, err)
		}
	}

	for _, m := range snap.Memories {
		_, err := tx.Exec(`INSERT INTO memories
			(agent_id, kind, content, significance, base_significance, timestamp, compressed)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.AgentID, string(m.Kind), m.Content, m.Significance, m.BaseSignificance, m.Timestamp, m.Compressed)
		if err != nil {
			return fmt.Errorf("save memory: %w", err)
		}
	}

	for _, g := range snap.Goals {
		_, err := tx.Exec(`INSERT INTO goals
			(agent_id, type, target_id, priority, description, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.AgentID, string(g.Type), g.TargetID, g.Priority, g.Description, string(g.Status), g.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("save goal: %w", err)
		}
	}

	for _, e := range snap.Events {
		actors, _ := json.Marshal(e.Actors)
		data, _ := json.Marshal(e.Data)
		_, err := tx.Exec(`INSERT INTO events
			(type, summary, timestamp, actors, location_id, detail, significance, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(e.Type), e.Summary, e.Timestamp, string(actors), e.LocationID, e.Detail, e.Significance, string(data))
		if err != nil {
			return fmt.Errorf("save event: %w", err)
		}
	}

	if err := setMeta(tx, "last_tick", strconv.FormatUint(snap.Clock.CurrentTick, 10)); err != nil {
		return err
	}
	if err := setMeta(tx, "day", strconv.Itoa(snap.Clock.CurrentDay)); err != nil {
		return err
	}
	if err := setMeta(tx, "hour", strconv.FormatFloat(snap.Clock.CurrentHour, 'f', -1, 64)); err != nil {
		return err
	}
	if err := setMeta(tx, "weather", snap.Clock.Weather); err != nil {
		return err
	}
	if err := setMeta(tx, "saved_at", strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		return err
	}

	return tx.Commit()
}

func setMeta(tx *sqlx.Tx, key, value string) error {
	_, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot restores the saved state.
func (db *DB) LoadSnapshot() (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Clock, err = db.loadClock(); err != nil {
		return snap, err
	}
	if snap.Agents, err = db.loadAgents(); err != nil {
		return snap, err
	}
	if snap.Locations, err = db.loadLocations(); err != nil {
		return snap, err
	}
	if snap.Relationships, err = db.loadRelationships(); err != nil {
		return snap, err
	}
	if snap.Memories, err = db.loadMemories(); err != nil {
		return snap, err
	}
	if snap.Goals, err = db.loadGoals(); err != nil {
		return snap, err
	}
	return snap, nil
}

func (db *DB) loadClock() (world.Clock, error) {
	c := world.Clock{CurrentDay: 1}
	var v string
	if err := db.conn.Get(&v, `SELECT value FROM meta WHERE key = 'last_tick'`); err == nil {
		c.CurrentTick, _ = strconv.ParseUint(v, 10, 64)
	}
	if err := db.conn.Get(&v, `SELECT value FROM meta WHERE key = 'day'`); err == nil {
		c.CurrentDay, _ = strconv.Atoi(v)
	}
	if err := db.conn.Get(&v, `SELECT value FROM meta WHERE key = 'hour'`); err == nil {
		c.CurrentHour, _ = strconv.ParseFloat(v, 64)
	}
	if err := db.conn.Get(&v, `SELECT value FROM meta WHERE key = 'weather'`); err == nil {
		c.Weather = v
	}
	c.Season = world.SeasonForDay(c.CurrentDay)
	return c, nil
}

func (db *DB) loadAgents() ([]world.Agent, error) {
	rows, err := db.conn.Query(`SELECT id, name, traits, prompt, location_id, inventory,
		happiness, mood_energy, hunger, energy, social, state FROM agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	defer rows.Close()

	var out []world.Agent
	for rows.Next() {
		var a world.Agent
		var traits, inv, state string
		if err := rows.Scan(&a.ID, &a.Name, &traits, &a.Prompt, &a.LocationID, &inv,
			&a.Mood.Happiness, &a.Mood.Energy, &a.Needs.Hunger, &a.Needs.Energy, &a.Needs.Social, &state); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		if err := json.Unmarshal([]byte(traits), &a.Traits); err != nil {
			return nil, fmt.Errorf("agent %s traits: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(inv), &a.Inventory); err != nil {
			return nil, fmt.Errorf("agent %s inventory: %w", a.ID, err)
		}
		st, ok := world.ParseAgentState(state)
		if !ok {
			return nil, fmt.Errorf("agent %s has unknown state %q", a.ID, state)
		}
		a.State = st
		out = append(out, a)
	}
	return out, rows.Err()
}

func (db *DB) loadLocations() ([]world.Location, error) {
	rows, err := db.conn.Query(`SELECT id, name, description, connections, objects, capacity
		FROM locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	defer rows.Close()

	var out []world.Location
	for rows.Next() {
		var l world.Location
		var conns, objs string
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &conns, &objs, &l.Capacity); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		if err := json.Unmarshal([]byte(conns), &l.Connections); err != nil {
			return nil, fmt.Errorf("location %s connections: %w", l.ID, err)
		}
		if err := json.Unmarshal([]byte(objs), &l.Objects); err != nil {
			return nil, fmt.Errorf("location %s objects: %w", l.ID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (db *DB) loadRelationships() ([]world.Relationship, error) {
	rows, err := db.conn.Query(`SELECT agent_id, target_id, type, score, history
		FROM relationships ORDER BY agent_id, target_id`)
	if err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	defer rows.Close()

	var out []world.Relationship
	for rows.Next() {
		var r world.Relationship
		var hist string
		if err := rows.Scan(&r.AgentID, &r.TargetID, &r.Type, &r.Score, &hist); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		if err := json.Unmarshal([]byte(hist), &r.History); err != nil {
			return nil, fmt.Errorf("relationship history: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) loadMemories() ([]memory.Memory, error) {
	rows, err := db.conn.Query(`SELECT agent_id, kind, content, significance, base_significance,
		timestamp, compressed FROM memories ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	defer rows.Close()

	var out []memory.Memory
	for rows.Next() {
		var m memory.Memory
		var kind string
		if err := rows.Scan(&m.AgentID, &kind, &m.Content, &m.Significance,
			&m.BaseSignificance, &m.Timestamp, &m.Compressed); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		k, ok := memory.ParseKind(kind)
		if !ok {
			return nil, fmt.Errorf("unknown memory kind %q", kind)
		}
		m.Kind = k
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) loadGoals() ([]goals.Goal, error) {
	rows, err := db.conn.Query(`SELECT agent_id, type, target_id, priority, description,
		status, created_at FROM goals ORDER BY agent_id, created_at`)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	defer rows.Close()

	var out []goals.Goal
	for rows.Next() {
		var g goals.Goal
		var typ, status string
		var createdAt int64
		if err := rows.Scan(&g.AgentID, &typ, &g.TargetID, &g.Priority,
			&g.Description, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		t, ok := goals.ParseType(typ)
		if !ok {
			return nil, fmt.Errorf("unknown goal type %q", typ)
		}
		g.Type = t
		g.Status = goals.Status(status)
		g.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, g)
	}
	return out, rows.Err()
}

// RecentEvents returns the newest limit stored events, oldest first.
func (db *DB) RecentEvents(limit int) ([]events.Event, error) {
	rows, err := db.conn.Query(`SELECT type, summary, timestamp, actors, location_id,
		detail, significance, data FROM events ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var e events.Event
		var typ, actors, data string
		var detail sql.NullString
		if err := rows.Scan(&typ, &e.Summary, &e.Timestamp, &actors, &e.LocationID,
			&detail, &e.Significance, &data); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		t, ok := events.ParseType(typ)
		if !ok {
			return nil, fmt.Errorf("unknown event type %q", typ)
		}
		e.Type = t
		e.Detail = detail.String
		if err := json.Unmarshal([]byte(actors), &e.Actors); err != nil {
			return nil, fmt.Errorf("event actors: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("event data: %w", err)
		}
		out = append(out, e)
	}
	// Reverse into insertion order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}
