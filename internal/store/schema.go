package store

// currentSchemaVersion is stamped into PRAGMA user_version after migration
const currentSchemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS businesses (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS departments (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS employees (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	age INTEGER NOT NULL DEFAULT 0,
	date_joined TEXT NOT NULL,
	business_id TEXT REFERENCES businesses(id) ON DELETE SET NULL,
	department_id TEXT REFERENCES departments(id) ON DELETE SET NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS business_departments (
	business_id TEXT NOT NULL,
	department_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (business_id, department_id),
	FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE CASCADE,
	FOREIGN KEY (department_id) REFERENCES departments(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_businesses_name ON businesses(name);
CREATE INDEX IF NOT EXISTS idx_departments_name ON departments(name);
CREATE INDEX IF NOT EXISTS idx_employees_name ON employees(name);
CREATE INDEX IF NOT EXISTS idx_employees_business ON employees(business_id);
CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department_id);
CREATE INDEX IF NOT EXISTS idx_business_departments_department ON business_departments(department_id);
`
