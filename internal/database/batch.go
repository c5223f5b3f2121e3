package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// AtomicBatch collects statements that must succeed together. Execute sends
// them as a single transaction block.
type AtomicBatch struct {
	statements []string
	vars       map[string]interface{}
	counter    int
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{vars: make(map[string]interface{})}
}

// Add appends a statement. Its variables are renamed to $s<N>_<name> so
// statements from different callers cannot clobber each other.
func (b *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	b.counter++
	for name, value := range vars {
		renamed := fmt.Sprintf("s%d_%s", b.counter, name)
		pattern := regexp.MustCompile(`\$` + regexp.QuoteMeta(name) + `\b`)
		query = pattern.ReplaceAllLiteralString(query, "$"+renamed)
		b.vars[renamed] = value
	}
	b.statements = append(b.statements, strings.TrimSuffix(strings.TrimSpace(query), ";"))
	return b
}

// Len returns the number of statements in the batch
func (b *AtomicBatch) Len() int {
	return len(b.statements)
}

// Build returns the transaction block and its merged variables
func (b *AtomicBatch) Build() (string, map[string]interface{}) {
	if len(b.statements) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String(), b.vars
}

// Execute runs all statements as a single transaction
func (b *AtomicBatch) Execute(ctx context.Context, db Database) error {
	query, vars := b.Build()
	if query == "" {
		return nil
	}
	return db.Execute(ctx, query, vars)
}
