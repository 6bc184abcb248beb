package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/cydxin/prompt-feed-sdk/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// 打印 GORM 解析出的列类型，并和库里实际的列对比（排查 AutoMigrate 没改到的列）。
//
// Usage:
//
//	export PROMPTFEED_MYSQL_DSN='user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=true&loc=Local'
//	go run ./scripts/print_gorm_schema.go
func main() {
	dsn := os.Getenv("PROMPTFEED_MYSQL_DSN")
	if dsn == "" {
		log.Fatal("PROMPTFEED_MYSQL_DSN is empty")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	for _, m := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			log.Fatalf("parse %T: %v", m, err)
		}
		printTable(db, stmt.Schema)
	}
}

type col struct {
	Field string
	Type  string
	Null  string
	Key   string
}

func printTable(db *gorm.DB, s *schema.Schema) {
	fmt.Printf("=== %s (%s) ===\n", s.Table, s.Name)

	// Dialect SQL type (what GORM will use in CREATE TABLE / ALTER TABLE)
	want := make(map[string]string)
	for _, f := range s.Fields {
		if f.DBName == "" {
			continue
		}
		want[f.DBName] = db.Dialector.DataTypeOf(f)
	}

	var cols []col
	// Works on MySQL
	if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", s.Table)).Scan(&cols).Error; err != nil {
		fmt.Println("SHOW COLUMNS failed:", err)
		return
	}
	have := make(map[string]col, len(cols))
	for _, c := range cols {
		have[c.Field] = c
	}

	names := make([]string, 0, len(want))
	for n := range want {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c, ok := have[n]
		if !ok {
			fmt.Printf("%-16s gorm=%-24s db=MISSING\n", n, want[n])
			continue
		}
		fmt.Printf("%-16s gorm=%-24s db=%s null=%s key=%s\n", n, want[n], c.Type, c.Null, c.Key)
	}
	for _, c := range cols {
		if _, ok := want[c.Field]; !ok {
			fmt.Printf("%-16s (not in model) db=%s\n", c.Field, c.Type)
		}
	}
}
