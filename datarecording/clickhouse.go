package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// ClickHouseConfig holds the connection parameters of a ClickHouse
// server.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseRecorder writes recorded entries into a shared ClickHouse
// database. Use it instead of the SQLite recorder when testbed binaries
// on several hosts record into one place.
type ClickHouseRecorder struct {
	conn clickhouse.Conn

	mu         sync.Mutex
	tables     map[string]*table
	batchSize  int
	entryCount int
}

// NewClickHouseRecorder connects to the server and creates a recorder.
// The recorder flushes automatically at exit.
func NewClickHouseRecorder(cfg ClickHouseConfig) *ClickHouseRecorder {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 30 * time.Second,
	})
	if err != nil {
		panic(fmt.Errorf("connect to ClickHouse at %s: %w", cfg.Addr, err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("ping ClickHouse at %s: %w", cfg.Addr, err))
	}

	r := &ClickHouseRecorder{
		conn:      conn,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// CreateTable creates a MergeTree table with columns matching the fields
// of sampleEntry, which must be a flat struct of scalar fields.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := reflect.TypeOf(sampleEntry)

	columns := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		columns = append(columns,
			field.Name+" "+clickHouseType(field.Type.Kind()))
	}

	createTableSQL := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree() ORDER BY %s",
		tableName, strings.Join(columns, ", "), t.Field(0).Name)

	if err := r.conn.Exec(context.Background(), createTableSQL); err != nil {
		panic(fmt.Errorf("create table %s: %w", tableName, err))
	}

	r.tables[tableName] = &table{structType: t}
}

// InsertData buffers one entry. Buffers are written out once the batch
// size is reached, on Flush, and at exit.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	t.entries = append(t.entries, entry)

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.flushLocked()
	}
}

// ListTables returns the names of all created tables.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]string, 0, len(r.tables))
	for t := range r.tables {
		tables = append(tables, t)
	}

	return tables
}

// Flush writes all buffered entries into the database with one bulk
// insert per table.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushLocked()
}

func (r *ClickHouseRecorder) flushLocked() {
	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, t := range r.tables {
		if len(t.entries) == 0 {
			continue
		}

		batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
		if err != nil {
			panic(fmt.Errorf("prepare batch for %s: %w", tableName, err))
		}

		for _, entry := range t.entries {
			v := reflect.ValueOf(entry)

			args := make([]any, 0, v.NumField())
			for i := 0; i < v.NumField(); i++ {
				args = append(args, clickHouseValue(v.Field(i)))
			}

			if err := batch.Append(args...); err != nil {
				panic(fmt.Errorf("append to batch for %s: %w", tableName, err))
			}
		}

		if err := batch.Send(); err != nil {
			panic(fmt.Errorf("send batch for %s: %w", tableName, err))
		}

		t.entries = nil
	}

	r.entryCount = 0
}

// Close flushes remaining entries and closes the connection.
func (r *ClickHouseRecorder) Close() error {
	r.Flush()
	return r.conn.Close()
}

func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "Int64"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "UInt64"
	case reflect.Float32, reflect.Float64:
		return "Float64"
	case reflect.String:
		return "String"
	default:
		panic(fmt.Sprintf("field kind %s is not a scalar", kind))
	}
}

// clickHouseValue widens a field value to the Go type the column driver
// expects for the column type used in clickHouseType.
func clickHouseValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	default:
		panic(fmt.Sprintf("field kind %s is not a scalar", v.Kind()))
	}
}
