package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration is one versioned schema change. MySQL runs DDL outside
// transactions, so each statement is executed on its own.
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

// Migrations is the ordered schema history.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "users, workspaces, settings, notifications",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				role VARCHAR(20) NOT NULL DEFAULT 'member',
				status VARCHAR(20) NOT NULL DEFAULT 'active',
				email VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				full_name VARCHAR(255) NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS workspaces (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				kind VARCHAR(10) NOT NULL DEFAULT 'solo',
				owner_id BIGINT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS workspace_members (
				workspace_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				role VARCHAR(10) NOT NULL DEFAULT 'member',
				created_at DATETIME NOT NULL,
				PRIMARY KEY (workspace_id, user_id),
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS settings (
				setting_key VARCHAR(100) PRIMARY KEY,
				setting_value VARCHAR(255) NOT NULL,
				description VARCHAR(255) NOT NULL DEFAULT ''
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS notifications (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				message VARCHAR(500) NOT NULL,
				link VARCHAR(255) NULL,
				is_read TINYINT(1) NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				INDEX idx_notifications_user (user_id, is_read, created_at),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS drafts (
				user_id BIGINT NOT NULL,
				draft_key VARCHAR(100) NOT NULL,
				payload JSON NOT NULL,
				updated_at DATETIME NOT NULL,
				PRIMARY KEY (user_id, draft_key),
				INDEX idx_drafts_updated (updated_at),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version:     2,
		Description: "branding sections",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS brand_profile (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL UNIQUE,
				activity TEXT NOT NULL,
				target TEXT NOT NULL,
				mission TEXT NOT NULL,
				brand_values JSON NOT NULL,
				tone_keywords JSON NOT NULL,
				is_validated TINYINT(1) NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS storytelling (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL UNIQUE,
				origin TEXT NOT NULL,
				turning_point TEXT NOT NULL,
				struggles TEXT NOT NULL,
				victory TEXT NOT NULL,
				pitch TEXT NOT NULL,
				is_validated TINYINT(1) NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS brand_proposition (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL UNIQUE,
				for_whom TEXT NOT NULL,
				problem TEXT NOT NULL,
				solution TEXT NOT NULL,
				difference TEXT NOT NULL,
				proposition TEXT NOT NULL,
				is_validated TINYINT(1) NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS brand_niche (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL UNIQUE,
				market TEXT NOT NULL,
				niche TEXT NOT NULL,
				persona TEXT NOT NULL,
				pains JSON NOT NULL,
				desires JSON NOT NULL,
				is_validated TINYINT(1) NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS brand_charter (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL UNIQUE,
				colors JSON NOT NULL,
				heading_font VARCHAR(100) NOT NULL,
				body_font VARCHAR(100) NOT NULL,
				logo_path VARCHAR(255) NOT NULL,
				moodboard JSON NOT NULL,
				photo_style TEXT NOT NULL,
				tone_keywords JSON NOT NULL,
				dos JSON NOT NULL,
				donts JSON NOT NULL,
				is_validated TINYINT(1) NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS website_about (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL UNIQUE,
				headline TEXT NOT NULL,
				story TEXT NOT NULL,
				approach TEXT NOT NULL,
				brand_values TEXT NOT NULL,
				cta TEXT NOT NULL,
				is_validated TINYINT(1) NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version:     3,
		Description: "offers, calendar, ideas, editorial line",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS offers (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL,
				name VARCHAR(255) NOT NULL,
				slug VARCHAR(255) NOT NULL,
				offer_type VARCHAR(20) NOT NULL DEFAULT 'main',
				target TEXT NOT NULL,
				problem TEXT NOT NULL,
				promise TEXT NOT NULL,
				features JSON NOT NULL,
				price DECIMAL(10,2) NULL,
				format VARCHAR(255) NOT NULL,
				objections JSON NOT NULL,
				guarantee TEXT NOT NULL,
				current_step TINYINT NOT NULL DEFAULT 1,
				is_validated TINYINT(1) NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE KEY uq_offers_slug (workspace_id, slug),
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS calendar_posts (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL,
				post_date DATE NOT NULL,
				canal VARCHAR(20) NOT NULL,
				format VARCHAR(20) NOT NULL,
				theme VARCHAR(255) NOT NULL,
				title VARCHAR(255) NOT NULL,
				content TEXT NOT NULL,
				objective VARCHAR(255) NOT NULL,
				status VARCHAR(20) NOT NULL DEFAULT 'idea',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				INDEX idx_calendar_month (workspace_id, post_date),
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS saved_ideas (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL,
				title VARCHAR(255) NOT NULL,
				format VARCHAR(20) NOT NULL,
				canal VARCHAR(20) NOT NULL,
				objective VARCHAR(255) NOT NULL,
				notes TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS instagram_editorial_line (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL UNIQUE,
				main_objective VARCHAR(255) NOT NULL,
				pillars JSON NOT NULL,
				frequency JSON NOT NULL,
				available_minutes INT NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version:     4,
		Description: "audits",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS branding_audits (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL,
				website_url VARCHAR(500) NOT NULL,
				instagram_handle VARCHAR(100) NOT NULL,
				linkedin_url VARCHAR(500) NOT NULL,
				score_global DECIMAL(5,1) NOT NULL DEFAULT 0,
				result JSON NOT NULL,
				created_at DATETIME NOT NULL,
				INDEX idx_audits_workspace (workspace_id, created_at),
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS audit_recommendations (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				audit_id BIGINT NOT NULL,
				title VARCHAR(255) NOT NULL,
				detail TEXT NOT NULL,
				priority VARCHAR(20) NOT NULL,
				module VARCHAR(255) NOT NULL DEFAULT '',
				position INT NOT NULL,
				is_completed TINYINT(1) NOT NULL DEFAULT 0,
				FOREIGN KEY (audit_id) REFERENCES branding_audits(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS website_audit (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL UNIQUE,
				url VARCHAR(500) NOT NULL,
				score_global DECIMAL(5,1) NOT NULL DEFAULT 0,
				result JSON NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version:     5,
		Description: "coaching program",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS coaching_programs (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				title VARCHAR(255) NOT NULL,
				start_date DATE NOT NULL,
				end_date DATE NOT NULL,
				total_sessions INT NOT NULL,
				status VARCHAR(20) NOT NULL DEFAULT 'active',
				created_at DATETIME NOT NULL,
				INDEX idx_programs_user (user_id, status),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS coaching_sessions (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				program_id BIGINT NOT NULL,
				title VARCHAR(255) NOT NULL,
				scheduled_at DATETIME NOT NULL,
				notes VARCHAR(2000) NOT NULL DEFAULT '',
				status VARCHAR(20) NOT NULL DEFAULT 'planned',
				reminder_sent TINYINT(1) NOT NULL DEFAULT 0,
				INDEX idx_sessions_schedule (status, scheduled_at),
				FOREIGN KEY (program_id) REFERENCES coaching_programs(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS coaching_actions (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				program_id BIGINT NOT NULL,
				session_id BIGINT NULL,
				title VARCHAR(255) NOT NULL,
				due_date DATE NULL,
				is_done TINYINT(1) NOT NULL DEFAULT 0,
				FOREIGN KEY (program_id) REFERENCES coaching_programs(id) ON DELETE CASCADE,
				FOREIGN KEY (session_id) REFERENCES coaching_sessions(id) ON DELETE SET NULL
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS coaching_deliverables (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				program_id BIGINT NOT NULL,
				title VARCHAR(255) NOT NULL,
				url VARCHAR(500) NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (program_id) REFERENCES coaching_programs(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version:     6,
		Description: "AI history and storage objects",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS ai_generations (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				function_name VARCHAR(50) NOT NULL,
				input JSON NOT NULL,
				output JSON NOT NULL,
				tokens_used INT NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				INDEX idx_generations_workspace (workspace_id, created_at),
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS ai_chat_history (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				workspace_id BIGINT NOT NULL,
				user_message TEXT NOT NULL,
				ai_response TEXT NOT NULL,
				tokens_used INT NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS storage_objects (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				workspace_id BIGINT NOT NULL,
				bucket VARCHAR(50) NOT NULL,
				path VARCHAR(500) NOT NULL,
				original_name VARCHAR(255) NOT NULL,
				content_type VARCHAR(100) NOT NULL,
				size_bytes BIGINT NOT NULL,
				created_at DATETIME NOT NULL,
				INDEX idx_objects_bucket (workspace_id, bucket),
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version:     7,
		Description: "deliverable session link",
		Statements: []string{
			`ALTER TABLE coaching_deliverables
				ADD COLUMN session_id BIGINT NULL AFTER program_id,
				ADD CONSTRAINT fk_deliverables_session
					FOREIGN KEY (session_id) REFERENCES coaching_sessions(id) ON DELETE SET NULL`,
		},
	},
}

// Migrate applies every migration newer than the recorded schema version.
func Migrate(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description VARCHAR(255) NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		for i, stmt := range m.Statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d (%s) statement %d: %w", m.Version, m.Description, i+1, err)
			}
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		log.Info("applied migration", zap.Int("version", m.Version), zap.String("description", m.Description))
	}
	return nil
}
