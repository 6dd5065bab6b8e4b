package model

import (
	"encoding/json"
)

// ProjectDocument 模型生成的项目文档
// 两个提供商返回的结构不同（嵌套 file_structure vs 扁平字段），且模型输出
// 不保证任何 schema，因此底层是解析出来的原始映射，所有读取都必须容忍缺键
type ProjectDocument struct {
	Fields map[string]any `bson:"fields" json:"-"`
}

// NewProjectDocument 从解析出的映射构建文档
func NewProjectDocument(fields map[string]any) *ProjectDocument {
	if fields == nil {
		fields = map[string]any{}
	}
	return &ProjectDocument{Fields: fields}
}

// FallbackProjectDocument 解析失败时的兜底文档
// overview 保留原始文本，结构化字段为空
func FallbackProjectDocument(raw string) *ProjectDocument {
	return NewProjectDocument(map[string]any{
		"project_name":         "project",
		"overview":             raw,
		"setup_guide":          "",
		"implementation_guide": "",
		"backend":              "",
		"frontend":             "",
		"config":               "",
		"dependencies":         []any{},
		"github_issues":        []any{},
	})
}

// FailedProjectDocument 所有提供商都失败时返回的占位文档
func FailedProjectDocument() *ProjectDocument {
	return NewProjectDocument(map[string]any{
		"project_name":         "Project",
		"overview":             "Documentation generation failed. Please try again.",
		"setup_guide":          "",
		"implementation_guide": "",
		"backend":              "",
		"frontend":             "",
		"config":               "",
		"dependencies":         []any{},
		"github_issues":        []any{},
	})
}

// MarshalJSON 直接输出底层映射
func (d *ProjectDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Fields)
}

// UnmarshalJSON 从 JSON 对象还原底层映射
func (d *ProjectDocument) UnmarshalJSON(data []byte) error {
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	d.Fields = fields
	return nil
}

// Clone 深拷贝（经 JSON 往返）
func (d *ProjectDocument) Clone() *ProjectDocument {
	if d == nil {
		return nil
	}
	data, err := json.Marshal(d.Fields)
	if err != nil {
		return NewProjectDocument(nil)
	}
	dup := map[string]any{}
	if err := json.Unmarshal(data, &dup); err != nil {
		return NewProjectDocument(nil)
	}
	return NewProjectDocument(dup)
}

// Get 读取顶层字段
func (d *ProjectDocument) Get(key string) (any, bool) {
	if d == nil || d.Fields == nil {
		return nil, false
	}
	v, ok := d.Fields[key]
	return v, ok
}

// GetString 读取字符串字段，缺失或类型不符返回空串
func (d *ProjectDocument) GetString(key string) string {
	v, ok := d.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetMap 读取对象字段，缺失或类型不符返回 nil
func (d *ProjectDocument) GetMap(key string) map[string]any {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// GetSlice 读取数组字段，缺失或类型不符返回 nil
func (d *ProjectDocument) GetSlice(key string) []any {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}

// Name 项目名，缺失时与原行为一致返回 "Project"
func (d *ProjectDocument) Name() string {
	if name := d.GetString("project_name"); name != "" {
		return name
	}
	return "Project"
}

// Summary 项目描述：优先 description，其次 overview
func (d *ProjectDocument) Summary() string {
	if desc := d.GetString("description"); desc != "" {
		return desc
	}
	return d.GetString("overview")
}

// ProjectFile 文件清单中的一项（path + content）
type ProjectFile struct {
	Path    string
	Content string
}

// FilesIn 读取 file_structure 下某分类的文件清单
// 分类缺失、形状不符的条目都被跳过
func (d *ProjectDocument) FilesIn(category string) []ProjectFile {
	structure := d.GetMap("file_structure")
	if structure == nil {
		return nil
	}
	items, _ := structure[category].([]any)

	var files []ProjectFile
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		path, _ := entry["path"].(string)
		content, _ := entry["content"].(string)
		if path == "" {
			continue
		}
		files = append(files, ProjectFile{Path: path, Content: content})
	}
	return files
}

// DocFiles 读取 file_structure.docs 下的文档文件（name -> content）
func (d *ProjectDocument) DocFiles() map[string]string {
	structure := d.GetMap("file_structure")
	if structure == nil {
		return nil
	}
	docs, _ := structure["docs"].(map[string]any)
	if docs == nil {
		return nil
	}

	files := map[string]string{}
	for name, v := range docs {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		content, _ := entry["content"].(string)
		files[name] = content
	}
	return files
}
