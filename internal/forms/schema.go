// Package forms defines the project questionnaire and turns raw answers into
// normalized values the workflow can reason about.
package forms

// Kind is the input kind of a form field.
type Kind string

const (
	KindSelect   Kind = "select"
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindTextarea Kind = "textarea"
)

// Field identifiers of the built-in questionnaire.
const (
	FieldProjectType    = "project_type"
	FieldProjectStage   = "project_stage"
	FieldFrontendCount  = "frontend_count"
	FieldExistingStack  = "existing_stack"
	FieldPackageJSON    = "package_json"
	FieldCoreFeatures   = "core_features"
	FieldKeyFeatures    = "key_features"
	FieldDevPreference  = "dev_preference"
	FieldForbiddenItems = "forbidden_items"
)

// Field describes one question.
type Field struct {
	ID      string
	Group   string
	Kind    Kind
	Label   string
	Choices []string
	Default any
}

// Group is an ordered section of the questionnaire.
type Group struct {
	ID    string
	Label string
}

// Schema is an ordered questionnaire.
type Schema struct {
	Groups []Group
	Fields []Field
}

// DefaultSchema returns the built-in questionnaire. The returned value is a
// fresh copy and may be modified by the caller.
func DefaultSchema() *Schema {
	return &Schema{
		Groups: []Group{
			{ID: "project_basic", Label: "Project basics"},
			{ID: "business", Label: "Business and requirements"},
			{ID: "constraints", Label: "Preferences and constraints"},
		},
		Fields: []Field{
			{
				ID:      FieldProjectType,
				Group:   "project_basic",
				Kind:    KindSelect,
				Label:   "Project type",
				Choices: []string{"Web-C端", "Web-B端", "小程序", "移动端开发"},
				Default: "Web-C端",
			},
			{
				ID:      FieldProjectStage,
				Group:   "project_basic",
				Kind:    KindSelect,
				Label:   "Project stage",
				Choices: []string{"全新开发", "项目新增", "局部模块替换"},
				Default: "全新开发",
			},
			{
				ID:      FieldFrontendCount,
				Group:   "project_basic",
				Kind:    KindNumber,
				Label:   "Frontend engineers on this project",
				Default: 1,
			},
			{
				ID:    FieldExistingStack,
				Group: "project_basic",
				Kind:  KindTextarea,
				Label: "Existing stack (frameworks, libraries, versions)",
			},
			{
				ID:    FieldPackageJSON,
				Group: "project_basic",
				Kind:  KindTextarea,
				Label: "package.json contents",
			},
			{
				ID:    FieldCoreFeatures,
				Group: "business",
				Kind:  KindTextarea,
				Label: "Core business features (admin, product list, charts, realtime, video, 3D...)",
			},
			{
				ID:    FieldKeyFeatures,
				Group: "business",
				Kind:  KindTextarea,
				Label: "Key qualities (SEO, virtual scrolling, offline, low latency...)",
			},
			{
				ID:    FieldDevPreference,
				Group: "constraints",
				Kind:  KindTextarea,
				Label: "Development preference (React/Vue, lightweight, TS first...)",
			},
			{
				ID:    FieldForbiddenItems,
				Group: "constraints",
				Kind:  KindTextarea,
				Label: "Hard no's (heavy bundles, abandoned ecosystems, licensing...)",
			},
		},
	}
}

// Field returns the field with the given id.
func (s *Schema) Field(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// FieldsIn returns the fields of a group in declaration order.
func (s *Schema) FieldsIn(group string) []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Group == group {
			out = append(out, f)
		}
	}
	return out
}
