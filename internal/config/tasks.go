package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Task is one configured generation task: a prompt template with
// {{placeholder}} inputs and an optional system role line.
type Task struct {
	Role   string `yaml:"role"`
	Prompt string `yaml:"prompt"`
}

// TasksFile represents the structure of config.yaml.
type TasksFile struct {
	Tasks map[string]Task `yaml:"tasks"`
}

// LoadTasks loads the task-prompt definitions from a YAML file.
func LoadTasks(filepath string) (map[string]Task, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading tasks file: %v", err)
	}

	var file TasksFile
	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("error parsing YAML: %v", err)
	}

	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("no tasks defined in %s", filepath)
	}

	return file.Tasks, nil
}
