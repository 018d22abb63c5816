package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"postcare/common/database"
	"postcare/internal/config"
	"postcare/internal/repository"
)

// 用法:
//
//	apply-migration                 执行内置建表语句
//	apply-migration <file.sql>      执行指定 SQL 文件
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer database.Close(db)

	fmt.Printf("Connected to database: %s\n\n", cfg.Database.Database)

	ctx := context.Background()

	if len(os.Args) < 2 {
		if err := repository.ApplySchema(ctx, db); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
		fmt.Println("✅ Schema applied successfully!")
		return
	}

	sqlContent, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	statements := repository.SplitStatements(string(sqlContent))
	for i, stmt := range statements {
		fmt.Printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v\nStatement: %s", i+1, err, stmt[:min(100, len(stmt))])
		}
	}

	fmt.Println("✅ Migration completed successfully!")
}
