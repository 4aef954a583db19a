package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ContentItemsColumns holds the columns for the "content_items" table.
	ContentItemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "title", Type: field.TypeString, Default: ""},
		{Name: "preview", Type: field.TypeString, Default: ""},
		{Name: "full_text", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "ocr_text", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "content_type", Type: field.TypeString},
		{Name: "source", Type: field.TypeString},
		{Name: "source_url", Type: field.TypeString, Default: ""},
		{Name: "favorite", Type: field.TypeBool, Default: false},
		{Name: "status", Type: field.TypeString},
		{Name: "confidence", Type: field.TypeFloat64, Default: 0},
		{Name: "content_hash", Type: field.TypeString, Default: ""},
		{Name: "error", Type: field.TypeString, Default: ""},
		{Name: "attachment", Type: field.TypeBytes, Nullable: true},
		{Name: "metadata", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// ContentItemsTable holds the schema information for the "content_items" table.
	ContentItemsTable = &schema.Table{
		Name:       "content_items",
		Columns:    ContentItemsColumns,
		PrimaryKey: []*schema.Column{ContentItemsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "contentitem_status", Columns: []*schema.Column{ContentItemsColumns[9]}},
			{Name: "contentitem_content_hash", Columns: []*schema.Column{ContentItemsColumns[11]}},
			{Name: "contentitem_created_at", Columns: []*schema.Column{ContentItemsColumns[15]}},
		},
	}
	// GeneratedTasksColumns holds the columns for the "generated_tasks" table.
	GeneratedTasksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "priority", Type: field.TypeString},
		{Name: "confidence", Type: field.TypeFloat64, Default: 0},
		{Name: "due_date", Type: field.TypeInt64, Nullable: true},
		{Name: "reasons", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "category", Type: field.TypeString},
		{Name: "completed", Type: field.TypeBool, Default: false},
		{Name: "position", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
		{Name: "content_id", Type: field.TypeString, Size: 36},
	}
	// GeneratedTasksTable holds the schema information for the "generated_tasks" table.
	GeneratedTasksTable = &schema.Table{
		Name:       "generated_tasks",
		Columns:    GeneratedTasksColumns,
		PrimaryKey: []*schema.Column{GeneratedTasksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "generated_tasks_content_items_tasks",
				Columns:    []*schema.Column{GeneratedTasksColumns[12]},
				RefColumns: []*schema.Column{ContentItemsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "generatedtask_content_id", Columns: []*schema.Column{GeneratedTasksColumns[12]}},
			{Name: "generatedtask_completed", Columns: []*schema.Column{GeneratedTasksColumns[8]}},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ContentItemsTable,
		GeneratedTasksTable,
	}
)

func init() {
	GeneratedTasksTable.ForeignKeys[0].RefTable = ContentItemsTable
}

// Migrate creates or updates the schema in place.
func Migrate(ctx context.Context, db *DB) error {
	m, err := schema.NewMigrate(db.Driver, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
