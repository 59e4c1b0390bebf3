package worksheet

import "time"

// Worksheet holds the header row of one named table.
type Worksheet struct {
	Name      string    `gorm:"column:name;primaryKey"`
	Columns   string    `gorm:"column:header;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Worksheet) TableName() string {
	return "worksheets"
}

// Row is one data row; Cells is a JSON array of strings aligned with the header.
type Row struct {
	ID        int64  `gorm:"primaryKey"`
	Worksheet string `gorm:"column:worksheet;not null;index:idx_worksheet_rows_position,priority:1"`
	Position  int    `gorm:"column:position;not null;index:idx_worksheet_rows_position,priority:2"`
	Cells     string `gorm:"column:cells;not null"`
}

func (Row) TableName() string {
	return "worksheet_rows"
}
