package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// SchemaStatements 按分号拆分建表语句（跳过空语句与纯注释）
func SchemaStatements() []string {
	return SplitStatements(schemaSQL)
}

// ApplySchema 依次执行建表语句（幂等）
func ApplySchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range SchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// SplitStatements 按分号拆分 SQL 文本，去掉 "--" 注释行
func SplitStatements(content string) []string {
	var out []string
	for _, stmt := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt = strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
