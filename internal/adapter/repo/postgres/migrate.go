package postgres

import (
	"context"
	"fmt"
	"log/slog"
)

var dropStatements = []string{
	`DROP TABLE IF EXISTS litscan_load_organism`,
	`DROP TABLE IF EXISTS litscan_organism`,
	`DROP TABLE IF EXISTS litscan_manually_annotated`,
	`DROP TABLE IF EXISTS litscan_database`,
	`DROP TABLE IF EXISTS litscan_body_sentence`,
	`DROP TABLE IF EXISTS litscan_abstract_sentence`,
	`DROP TABLE IF EXISTS litscan_result`,
	`DROP TABLE IF EXISTS litscan_article`,
	`DROP TABLE IF EXISTS litscan_consumer`,
	`DROP TABLE IF EXISTS litscan_job`,
}

var createStatements = []string{
	`CREATE TABLE litscan_job (
		job_id VARCHAR(100) PRIMARY KEY,
		display_id VARCHAR(100),
		query TEXT,
		search_limit INTEGER,
		status VARCHAR(10) NOT NULL,
		submitted TIMESTAMP,
		finished TIMESTAMP,
		hit_count INTEGER)`,
	`CREATE TABLE litscan_consumer (
		ip VARCHAR(20) PRIMARY KEY,
		status VARCHAR(10) NOT NULL,
		job_id VARCHAR(100) REFERENCES litscan_job(job_id),
		port VARCHAR(5))`,
	`CREATE TABLE litscan_article (
		pmcid VARCHAR(15) PRIMARY KEY,
		title TEXT,
		abstract TEXT,
		author TEXT,
		pmid VARCHAR(100),
		doi VARCHAR(100),
		year INTEGER,
		journal VARCHAR(255),
		type VARCHAR(50),
		score INTEGER,
		cited_by INTEGER,
		retracted BOOLEAN DEFAULT FALSE,
		rna_related BOOLEAN,
		probability FLOAT)`,
	`CREATE TABLE litscan_result (
		id SERIAL PRIMARY KEY,
		pmcid VARCHAR(15) REFERENCES litscan_article(pmcid) ON DELETE CASCADE,
		job_id VARCHAR(100) REFERENCES litscan_job(job_id) ON UPDATE CASCADE ON DELETE CASCADE,
		id_in_title BOOLEAN,
		id_in_abstract BOOLEAN,
		id_in_body BOOLEAN,
		UNIQUE (pmcid, job_id))`,
	`CREATE INDEX ON litscan_result (job_id)`,
	`CREATE TABLE litscan_abstract_sentence (
		id SERIAL PRIMARY KEY,
		result_id INTEGER REFERENCES litscan_result(id) ON DELETE CASCADE,
		sentence TEXT)`,
	`CREATE TABLE litscan_body_sentence (
		id SERIAL PRIMARY KEY,
		result_id INTEGER REFERENCES litscan_result(id) ON DELETE CASCADE,
		location VARCHAR(20),
		sentence TEXT)`,
	`CREATE TABLE litscan_database (
		id SERIAL PRIMARY KEY,
		name VARCHAR(50),
		job_id VARCHAR(100) REFERENCES litscan_job(job_id) ON DELETE CASCADE,
		primary_id VARCHAR(100) REFERENCES litscan_job(job_id),
		manually_annotated BOOLEAN DEFAULT FALSE,
		UNIQUE (name, job_id, primary_id))`,
	`CREATE TABLE litscan_manually_annotated (
		id SERIAL PRIMARY KEY,
		pmcid VARCHAR(15) REFERENCES litscan_article(pmcid),
		urs VARCHAR(100) REFERENCES litscan_job(job_id))`,
	`CREATE TABLE litscan_organism (
		id SERIAL PRIMARY KEY,
		pmcid VARCHAR(15) REFERENCES litscan_article(pmcid),
		organism INTEGER)`,
	`CREATE TABLE litscan_load_organism (
		id SERIAL PRIMARY KEY,
		pmcid VARCHAR(15),
		organism INTEGER)`,
}

// Migrate drops and recreates the schema. Only the producer runs this, and
// only when MIGRATE is set.
func Migrate(ctx context.Context, pool PgxPool) error {
	for _, q := range dropStatements {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("op=migrate.drop: %w", err)
		}
	}
	for _, q := range createStatements {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("op=migrate.create: %w", err)
		}
	}
	slog.Info("schema recreated")
	return nil
}
