// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain read models to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain types should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain types and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, OwnerModel)
// - contract.go: Contract and analysis models read by reports
// - usage.go: Append-only usage event log
//
// The schema itself is owned by the SQL files under migrations/; AutoMigrate
// is only used by tests.
package models
