package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"architect/internal/model"
)

// BuildProjectZip 把生成的项目文档打成 ZIP
// 布局: 元数据 + backend/frontend/config 文件清单 + docs/ + 依赖与 issue 清单
// + 合成的 README，返回字节与下载文件名
func BuildProjectZip(conv *model.Conversation) ([]byte, string, error) {
	doc := conv.Document
	if doc == nil {
		return nil, "", fmt.Errorf("conversation %s has no generated document", conv.ID)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	metadata := map[string]any{
		"project_name":    doc.Name(),
		"description":     doc.Summary(),
		"generated_at":    conv.LastActivity.Format(time.RFC3339),
		"conversation_id": conv.ID,
	}
	if err := writeJSON(w, "project-metadata.json", metadata); err != nil {
		return nil, "", err
	}

	for _, category := range []string{"backend", "frontend", "config"} {
		for _, f := range doc.FilesIn(category) {
			if err := writeFile(w, f.Path, f.Content); err != nil {
				return nil, "", err
			}
		}
	}

	docFiles := collectDocFiles(doc)
	for path, content := range docFiles {
		if err := writeFile(w, path, content); err != nil {
			return nil, "", err
		}
	}

	if deps, ok := doc.Get("dependencies"); ok && !isEmpty(deps) {
		if err := writeJSON(w, "dependencies.json", deps); err != nil {
			return nil, "", err
		}
	}
	if issues, ok := doc.Get("github_issues"); ok && !isEmpty(issues) {
		if err := writeJSON(w, "github-issues.json", issues); err != nil {
			return nil, "", err
		}
	}

	if err := writeFile(w, "README.md", buildReadme(conv, len(docFiles))); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ZipFilename(doc.Name()), nil
}

// ZipFilename 项目名小写、空格转横线
func ZipFilename(projectName string) string {
	name := strings.ToLower(projectName)
	name = strings.ReplaceAll(name, " ", "-")
	return name + "-complete-project.zip"
}

// BuildResponseText 最近一条助手回复的下载文本
func BuildResponseText(conv *model.Conversation) (string, bool) {
	msg, ok := conv.LastAssistantMessage()
	if !ok {
		return "", false
	}

	divider := strings.Repeat("=", 50)
	return fmt.Sprintf(`Claude Response - Project Architect

Project: %s
Conversation ID: %s
Generated: %s

%s

%s

%s

Generated by Claude AI via Project Architect API
`, conv.ProjectIdea, conv.ID, msg.Timestamp.Format(time.RFC3339), divider, msg.Content, divider), true
}

// ResponseFilename 回复文本的下载文件名
func ResponseFilename(conversationID string) string {
	return "claude-response-" + conversationID + ".txt"
}

// collectDocFiles 展开 file_structure.docs 为 ZIP 路径到内容的映射
// 两种形状都接受: {name: {content}} 直接落在 docs/ 下，{category: {name:
// {content}}} 落在 docs/category/ 下
func collectDocFiles(doc *model.ProjectDocument) map[string]string {
	structure := doc.GetMap("file_structure")
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
		if content, ok := entry["content"].(string); ok {
			files["docs/"+name] = content
			continue
		}
		for filename, fv := range entry {
			fileEntry, ok := fv.(map[string]any)
			if !ok {
				continue
			}
			content, _ := fileEntry["content"].(string)
			files["docs/"+name+"/"+filename] = content
		}
	}
	return files
}

func buildReadme(conv *model.Conversation, docCount int) string {
	doc := conv.Document
	description := doc.Summary()
	if description == "" {
		description = "Project description"
	}

	return fmt.Sprintf(`# %s

%s

## Project Structure

This project was generated using the Project Architect AI system.

### Components
- Backend: %d files
- Frontend: %d files
- Documentation: %d files

### Getting Started

1. Install dependencies
2. Configure environment variables
3. Run the application

See the documentation in the `+"`docs/`"+` folder for detailed instructions.

Generated on: %s
`, doc.Name(), description,
		len(doc.FilesIn("backend")), len(doc.FilesIn("frontend")), docCount,
		conv.LastActivity.Format(time.RFC3339))
}

func writeFile(w *zip.Writer, path, content string) error {
	f, err := w.Create(path)
	if err != nil {
		return err
	}
	_, err = f.Write([]byte(content))
	return err
}

func writeJSON(w *zip.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(w, path, string(data))
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case string:
		return t == ""
	}
	return false
}
