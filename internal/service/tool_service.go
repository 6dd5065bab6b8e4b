package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"architect/internal/model"
	"architect/internal/pkg/gooseai"
)

// 工具执行相关错误，handler 据此区分 4xx/5xx
var (
	ErrToolClientUnavailable = errors.New("tool client not available")
	ErrToolNotFound          = errors.New("tool not found")
)

// ToolService 工具调用服务
// 生成类工具走 GooseAI 补全；运维类工具只生成待执行的命令，不落地执行
type ToolService struct {
	goose *gooseai.Client
	tools []model.ToolDefinition
}

// NewToolService 创建工具服务
func NewToolService(goose *gooseai.Client) *ToolService {
	return &ToolService{
		goose: goose,
		tools: toolDefinitions(),
	}
}

// Definitions 返回全部工具定义
func (s *ToolService) Definitions() []model.ToolDefinition {
	return s.tools
}

// ToolNames 工具名列表，顺序与定义一致
func (s *ToolService) ToolNames() []string {
	names := make([]string, len(s.tools))
	for i, tool := range s.tools {
		names[i] = tool.Name
	}
	return names
}

// Execute 执行单个工具
// 客户端未配置或工具不存在时返回错误；工具内部失败不报错，结果里带
// success=false 与 error 字段
func (s *ToolService) Execute(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
	if !s.goose.Available() {
		return nil, ErrToolClientUnavailable
	}
	if !s.knows(name) {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if params == nil {
		params = map[string]any{}
	}

	var result map[string]any
	var err error
	switch name {
	case "create_project_structure":
		result, err = s.createProjectStructure(ctx, params)
	case "generate_code":
		result, err = s.generateCode(ctx, params)
	case "create_documentation":
		result, err = s.createDocumentation(ctx, params)
	case "execute_git_operations":
		result = gitOperations(params)
	case "install_dependencies":
		result = installDependencies(params)
	case "deploy_project":
		result = deployProject(params)
	}

	if err != nil {
		log.Error().Err(err).Str("tool", name).Msg("tool execution failed")
		return map[string]any{
			"success": false,
			"tool":    name,
			"error":   err.Error(),
		}, nil
	}
	return result, nil
}

// ConnectionStatus 探测工具链路可用性
func (s *ToolService) ConnectionStatus(ctx context.Context) map[string]any {
	if !s.goose.Available() {
		return map[string]any{
			"status":          "unavailable",
			"message":         "GooseAI tool client not configured",
			"tools_available": 0,
		}
	}

	reply, err := s.goose.ExecuteToolPrompt(ctx, "Test connection")
	if err != nil {
		return map[string]any{
			"status":          "error",
			"message":         "Connection failed: " + err.Error(),
			"tools_available": 0,
		}
	}

	if runes := []rune(reply); len(runes) > 100 {
		reply = string(runes[:100]) + "..."
	}
	return map[string]any{
		"status":          "available",
		"message":         "GooseAI tool client connected successfully",
		"tools_available": len(s.tools),
		"tools":           s.ToolNames(),
		"test_response":   reply,
	}
}

// CreateProject 组合多个工具产出完整项目：结构、按需生成的文件、文档、git 初始化
func (s *ToolService) CreateProject(ctx context.Context, req map[string]any) (map[string]any, error) {
	projectName := stringParam(req, "project_name", "my-project")
	framework := stringParam(req, "framework", "react")
	backend := stringParam(req, "backend", "nodejs")

	structure, err := s.Execute(ctx, "create_project_structure", map[string]any{
		"project_name": projectName,
		"framework":    framework,
		"backend":      backend,
		"database":     stringParam(req, "database", "postgresql"),
	})
	if err != nil {
		return nil, err
	}

	var generated []map[string]any
	if files, ok := req["files"].([]any); ok {
		for _, f := range files {
			spec, ok := f.(map[string]any)
			if !ok {
				continue
			}
			fileResult, err := s.Execute(ctx, "generate_code", map[string]any{
				"file_type": stringParam(spec, "type", ""),
				"content":   stringParam(spec, "content", ""),
				"framework": framework,
			})
			if err != nil {
				return nil, err
			}
			generated = append(generated, fileResult)
		}
	}

	docs, err := s.Execute(ctx, "create_documentation", map[string]any{
		"doc_type": "readme",
		"project_info": fmt.Sprintf("Project: %s, Framework: %s, Backend: %s",
			projectName, framework, backend),
	})
	if err != nil {
		return nil, err
	}

	git, err := s.Execute(ctx, "execute_git_operations", map[string]any{
		"operation": "init",
		"message":   "Initial commit for " + projectName,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":       true,
		"project_name":  projectName,
		"structure":     structure,
		"files":         generated,
		"documentation": docs,
		"git":           git,
		"message":       fmt.Sprintf("Complete project '%s' created successfully", projectName),
	}, nil
}

// DeployProject 依赖安装 + 部署两步编排
func (s *ToolService) DeployProject(ctx context.Context, req map[string]any) (map[string]any, error) {
	deps, err := s.Execute(ctx, "install_dependencies", map[string]any{
		"package_manager": stringParam(req, "package_manager", "npm"),
		"dependencies":    req["dependencies"],
	})
	if err != nil {
		return nil, err
	}

	platform := stringParam(req, "platform", "vercel")
	deployment, err := s.Execute(ctx, "deploy_project", map[string]any{
		"platform":     platform,
		"project_path": stringParam(req, "project_path", "."),
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":      true,
		"dependencies": deps,
		"deployment":   deployment,
		"message":      fmt.Sprintf("Project deployed to %s successfully", platform),
	}, nil
}

func (s *ToolService) knows(name string) bool {
	for _, tool := range s.tools {
		if tool.Name == name {
			return true
		}
	}
	return false
}

func (s *ToolService) createProjectStructure(ctx context.Context, params map[string]any) (map[string]any, error) {
	projectName := stringParam(params, "project_name", "my-project")

	prompt := fmt.Sprintf(`Create a complete project structure for:
Project Name: %s
Frontend Framework: %s
Backend Technology: %s
Database: %s

Provide the file structure in JSON format with:
- Directory structure
- Key files to create
- Configuration files
- Dependencies to install

Format as JSON with 'structure' and 'files' arrays.`,
		projectName,
		stringParam(params, "framework", "react"),
		stringParam(params, "backend", "nodejs"),
		stringParam(params, "database", "postgresql"))

	response, err := s.goose.ExecuteToolPrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":      true,
		"tool":         "create_project_structure",
		"project_name": projectName,
		"structure":    response,
		"message":      "Project structure created for " + projectName,
	}, nil
}

func (s *ToolService) generateCode(ctx context.Context, params map[string]any) (map[string]any, error) {
	fileType := stringParam(params, "file_type", "")
	framework := stringParam(params, "framework", "react")

	prompt := fmt.Sprintf(`Generate %s code for %s framework.

Requirements: %s

Provide the complete code with:
- Proper imports
- Best practices
- Comments for clarity
- Error handling

Return only the code without explanations.`,
		fileType, framework, stringParam(params, "content", ""))

	code, err := s.goose.ExecuteToolPrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":   true,
		"tool":      "generate_code",
		"file_type": fileType,
		"code":      code,
		"framework": framework,
	}, nil
}

func (s *ToolService) createDocumentation(ctx context.Context, params map[string]any) (map[string]any, error) {
	docType := stringParam(params, "doc_type", "")

	prompt := fmt.Sprintf(`Create %s documentation for the project.

Project Information: %s

Create comprehensive documentation including:
- Project overview
- Setup instructions
- Usage examples
- API documentation (if applicable)
- Deployment guide

Format as markdown.`, docType, stringParam(params, "project_info", ""))

	documentation, err := s.goose.ExecuteToolPrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":       true,
		"tool":          "create_documentation",
		"doc_type":      docType,
		"documentation": documentation,
	}, nil
}

func gitOperations(params map[string]any) map[string]any {
	operation := stringParam(params, "operation", "")
	message := stringParam(params, "message", "")

	commands := map[string]string{
		"init":   "git init",
		"add":    "git add .",
		"commit": fmt.Sprintf("git commit -m %q", message),
		"push":   "git push origin main",
	}
	command, ok := commands[operation]
	if !ok {
		command = "git " + operation
	}

	return map[string]any{
		"success":   true,
		"tool":      "execute_git_operations",
		"operation": operation,
		"command":   command,
		"message":   fmt.Sprintf("Git %s executed successfully", operation),
	}
}

func installDependencies(params map[string]any) map[string]any {
	packageManager := stringParam(params, "package_manager", "")

	var deps []string
	if raw, ok := params["dependencies"].([]any); ok {
		for _, d := range raw {
			if dep, ok := d.(string); ok {
				deps = append(deps, dep)
			}
		}
	}

	var command string
	switch packageManager {
	case "npm":
		command = "npm install " + strings.Join(deps, " ")
	case "pip":
		command = "pip install " + strings.Join(deps, " ")
	case "maven":
		command = "mvn install"
	default:
		command = packageManager + " install " + strings.Join(deps, " ")
	}

	return map[string]any{
		"success":         true,
		"tool":            "install_dependencies",
		"package_manager": packageManager,
		"dependencies":    deps,
		"command":         strings.TrimSpace(command),
		"message":         "Dependencies installed using " + packageManager,
	}
}

func deployProject(params map[string]any) map[string]any {
	platform := stringParam(params, "platform", "")

	commands := map[string]string{
		"vercel":  "vercel --prod",
		"railway": "railway up",
		"heroku":  "git push heroku main",
		"netlify": "netlify deploy --prod",
	}
	command, ok := commands[platform]
	if !ok {
		command = "deploy to " + platform
	}

	return map[string]any{
		"success":      true,
		"tool":         "deploy_project",
		"platform":     platform,
		"project_path": stringParam(params, "project_path", ""),
		"command":      command,
		"message":      "Project deployed to " + platform,
	}
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func toolDefinitions() []model.ToolDefinition {
	return []model.ToolDefinition{
		{
			Name:        "create_project_structure",
			Description: "Create a complete project file structure",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project_name": map[string]any{"type": "string", "description": "Name of the project"},
					"framework":    map[string]any{"type": "string", "description": "Frontend framework (react, vue, angular)"},
					"backend":      map[string]any{"type": "string", "description": "Backend technology (nodejs, python, java)"},
					"database":     map[string]any{"type": "string", "description": "Database type (postgresql, mysql, mongodb)"},
				},
				"required": []string{"project_name"},
			},
		},
		{
			Name:        "generate_code",
			Description: "Generate code files for the project",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"file_type": map[string]any{"type": "string", "description": "Type of file to generate"},
					"content":   map[string]any{"type": "string", "description": "Code content or description"},
					"framework": map[string]any{"type": "string", "description": "Framework for the code"},
				},
				"required": []string{"file_type", "content"},
			},
		},
		{
			Name:        "create_documentation",
			Description: "Create project documentation",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"doc_type":     map[string]any{"type": "string", "description": "Type of documentation (readme, api, setup)"},
					"project_info": map[string]any{"type": "string", "description": "Project information and requirements"},
				},
				"required": []string{"doc_type", "project_info"},
			},
		},
		{
			Name:        "execute_git_operations",
			Description: "Execute Git operations for the project",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"operation": map[string]any{"type": "string", "description": "Git operation (init, add, commit, push)"},
					"message":   map[string]any{"type": "string", "description": "Commit message or operation details"},
				},
				"required": []string{"operation"},
			},
		},
		{
			Name:        "install_dependencies",
			Description: "Install project dependencies",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"package_manager": map[string]any{"type": "string", "description": "Package manager (npm, pip, maven)"},
					"dependencies": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of dependencies",
					},
				},
				"required": []string{"package_manager", "dependencies"},
			},
		},
		{
			Name:        "deploy_project",
			Description: "Deploy the project to a platform",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"platform":     map[string]any{"type": "string", "description": "Deployment platform (vercel, railway, heroku)"},
					"project_path": map[string]any{"type": "string", "description": "Path to the project"},
				},
				"required": []string{"platform", "project_path"},
			},
		},
	}
}
