package model

// StudentImportedInfo is a student row imported from a spreadsheet, waiting
// to be merged into a Student when they first check in.
type StudentImportedInfo struct {
	Name       string   `dynamodbav:"name" json:"name" yaml:"name"`
	Belt       string   `dynamodbav:"belt" json:"belt" yaml:"belt"`
	Logins     []string `dynamodbav:"logins" json:"logins" yaml:"logins"`
	Notes      []string `dynamodbav:"notes" json:"notes" yaml:"notes"`
	Behaviours []string `dynamodbav:"behaviours" json:"behaviours" yaml:"behaviours"`
}

func (StudentImportedInfo) TableName() string    { return ImportedTable }
func (StudentImportedInfo) KeyAttribute() string { return ImportedKeyAttribute }
func (i StudentImportedInfo) PrimaryKey() string { return i.Name }

// ToStudent converts the imported row into a student with undated, unattributed
// notes numbered consecutively across logins, notes, and behaviours.
func (i StudentImportedInfo) ToStudent(id string) Student {
	first, last := SplitName(i.Name)
	s := Student{
		FirstName:  first,
		LastName:   last,
		ID:         id,
		Name:       i.Name,
		Belt:       i.Belt,
		Logins:     []Note{},
		Notes:      []Note{},
		Behaviours: []Note{},
	}
	s.MergeImported(i)
	return s
}

// MergeImported fills each empty note list from the imported row.
// Lists that already hold notes are left alone.
func (s *Student) MergeImported(i StudentImportedInfo) {
	fill := func(kind NoteKind, contents []string) {
		list := s.List(kind)
		if len(*list) > 0 {
			return
		}
		notes := make([]Note, 0, len(contents))
		for _, c := range contents {
			notes = append(notes, Note{ID: s.NoteCounter.Increment(), Content: c})
		}
		*list = notes
	}
	fill(KindLogins, i.Logins)
	fill(KindNotes, i.Notes)
	fill(KindBehaviours, i.Behaviours)
}
