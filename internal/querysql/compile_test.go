package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name       string
		query      Select
		wantSQL    string
		wantParams []any
	}{
		{
			name: "order and limit",
			query: Select{
				Columns: []string{"n.key", "n.created_at"},
				From:    "notes",
				Alias:   "n",
				Where:   Equals{Field: "n.superseded", Value: 0},
				OrderBy: []Order{{Field: "n.created_at", Desc: true}, {Field: "n.key", Desc: true}},
				Limit:   10,
			},
			wantSQL:    "SELECT n.key, n.created_at FROM notes n WHERE n.superseded = ? ORDER BY n.created_at DESC, n.key DESC LIMIT ?",
			wantParams: []any{0, 10},
		},
		{
			name: "no where no limit",
			query: Select{
				Columns: []string{"key"},
				From:    "notes",
				OrderBy: []Order{{Field: "key"}},
			},
			wantSQL: "SELECT key FROM notes ORDER BY key ASC",
		},
		{
			name: "params follow clause order",
			query: Select{
				Columns: []string{"key"},
				From:    "notes",
				Where: And{Predicates: []Predicate{
					In{Field: "kind", Values: []any{1, 7}},
					Compare{Field: "created_at", Op: OpGE, Value: int64(100)},
					Compare{Field: "created_at", Op: OpLE, Value: int64(200)},
				}},
				OrderBy: []Order{{Field: "key"}},
				Limit:   5,
			},
			wantSQL:    "SELECT key FROM notes WHERE kind IN (?, ?) AND created_at >= ? AND created_at <= ? ORDER BY key ASC LIMIT ?",
			wantParams: []any{1, 7, int64(100), int64(200), 5},
		},
		{
			name: "exists subquery",
			query: Select{
				Columns: []string{"n.key"},
				From:    "notes",
				Alias:   "n",
				Where: And{Predicates: []Predicate{
					Exists{Sub: Select{
						From:  "tags",
						Alias: "t",
						Where: And{Predicates: []Predicate{
							ColumnEquals{Left: "t.note_key", Right: "n.key"},
							Equals{Field: "t.name", Value: "t"},
							In{Field: "t.value", Values: []any{"nostr"}},
						}},
					}},
					Compare{Field: "n.key", Op: OpGT, Value: int64(3)},
				}},
				OrderBy: []Order{{Field: "n.key"}},
			},
			wantSQL:    "SELECT n.key FROM notes n WHERE EXISTS (SELECT 1 FROM tags t WHERE t.note_key = n.key AND t.name = ? AND t.value IN (?)) AND n.key > ? ORDER BY n.key ASC",
			wantParams: []any{"t", "nostr", int64(3)},
		},
		{
			name: "contains escapes wildcards",
			query: Select{
				Columns: []string{"key"},
				From:    "notes",
				Where:   Contains{Field: "content", Substring: `50%_off\`},
				OrderBy: []Order{{Field: "key"}},
			},
			wantSQL:    `SELECT key FROM notes WHERE content LIKE ? ESCAPE '\' ORDER BY key ASC`,
			wantParams: []any{`%50\%\_off\\%`},
		},
		{
			name: "empty and is true",
			query: Select{
				Columns: []string{"key"},
				From:    "notes",
				Where:   And{},
				OrderBy: []Order{{Field: "key"}},
			},
			wantSQL: "SELECT key FROM notes WHERE 1 = 1 ORDER BY key ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := Compile(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	ordered := []Order{{Field: "key"}}

	tests := []struct {
		name    string
		query   Select
		wantErr string
	}{
		{
			name:    "missing order by",
			query:   Select{Columns: []string{"key"}, From: "notes"},
			wantErr: "query on notes has no ORDER BY",
		},
		{
			name:    "invalid table",
			query:   Select{Columns: []string{"key"}, From: "notes; DROP TABLE notes", OrderBy: ordered},
			wantErr: "invalid identifier",
		},
		{
			name:    "invalid column",
			query:   Select{Columns: []string{"key--"}, From: "notes", OrderBy: ordered},
			wantErr: "invalid identifier",
		},
		{
			name:    "invalid order field",
			query:   Select{Columns: []string{"key"}, From: "notes", OrderBy: []Order{{Field: "1=1"}}},
			wantErr: "invalid identifier",
		},
		{
			name: "empty in list",
			query: Select{
				Columns: []string{"key"}, From: "notes", OrderBy: ordered,
				Where: In{Field: "kind"},
			},
			wantErr: "empty IN list for kind",
		},
		{
			name: "unsupported operator",
			query: Select{
				Columns: []string{"key"}, From: "notes", OrderBy: ordered,
				Where: Compare{Field: "kind", Op: Op("!="), Value: 1},
			},
			wantErr: `unsupported operator "!="`,
		},
		{
			name: "invalid identifier in subquery",
			query: Select{
				Columns: []string{"key"}, From: "notes", OrderBy: ordered,
				Where: Exists{Sub: Select{From: "tags t"}},
			},
			wantErr: "invalid identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", EscapeLike("plain"))
	assert.Equal(t, `a\%b\_c\\d`, EscapeLike(`a%b_c\d`))
}
