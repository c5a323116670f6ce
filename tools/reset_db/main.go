package main

import (
	"database/sql"
	"fmt"
	"log"

	"social-hub/config"
	dbPkg "social-hub/pkg/db"

	_ "github.com/go-sql-driver/mysql"
)

// tables 子表在前
var tables = []string{"message", "conversation", "friendship", "friend_request", "post", "user"}

func main() {
	cfg := config.LoadConfig().Database
	if cfg.Driver != dbPkg.DriverMySQL {
		log.Fatalf("reset_db only supports mysql, configured driver is %q", cfg.Driver)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.Charset,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Database connection test failed: %v", err)
	}

	fmt.Println("Database connected successfully")
	fmt.Printf("Database: %s\n", cfg.Database)

	fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables %v!\n", tables)
	fmt.Print("Type 'YES' to confirm: ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "YES" {
		fmt.Println("Operation cancelled")
		return
	}

	_, _ = db.Exec("SET FOREIGN_KEY_CHECKS=0")
	defer func() { _, _ = db.Exec("SET FOREIGN_KEY_CHECKS=1") }()

	failed := 0
	for _, table := range tables {
		fmt.Printf("Truncating table %s... ", table)
		// TRUNCATE 同时重置自增ID
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE `%s`", table)); err != nil {
			failed++
			fmt.Printf("Failed: %v\n", err)
			continue
		}
		fmt.Println("Success")
	}

	if failed > 0 {
		log.Fatalf("Database reset finished with %d failed table(s)", failed)
	}
	fmt.Println("\nDatabase reset completed!")
	fmt.Println("All table data cleared, table structure preserved")
}
