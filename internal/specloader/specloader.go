// Package specloader implements DagSpecLoader: it consumes a generic
// document tree (produced externally by whatever parser the host chooses),
// resolves dynamic stage/callback symbols through a dynlib.Registry, and
// builds a runnable DAG. Failure is total: on any error, no partial DAG is
// returned.
package specloader

import (
	"encoding/json"
	"fmt"

	validatorpkg "github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/dagflow/internal/dag"
	"github.com/alexisbeaulieu97/dagflow/internal/dynlib"
	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/stage"
	"github.com/alexisbeaulieu97/dagflow/internal/task"
	dagerrors "github.com/alexisbeaulieu97/dagflow/pkg/errors"
)

// sampleDocument is embedded in WrongRoot errors so the caller can see a
// minimal well-formed shape.
const sampleDocument = `DAG:
  Title: example
  Vertices:
    - UUID: 123e4567-e89b-12d3-a456-426614174000
      Name: hello
      Task:
        Stages:
          - LibraryName: ./stages/echo.so
            SymbolName: NewEchoStage
  Connections: []
`

// StageFactory is the shape a resolved stage-factory symbol must have.
type StageFactory func(label string) stage.Stage

// CallbackFuncFactory is the shape a resolved function-callback symbol
// may have: it returns the actual (bool)->() callback. A symbol that is
// itself a func(bool) is also accepted and used as the callback directly.
type CallbackFuncFactory func() task.CallbackFunc

// CallbackPluginFactory is the shape a resolved plugin-callback symbol
// must have.
type CallbackPluginFactory func() task.CallbackPlugin

// Loader builds DAGs from generic document trees.
type Loader struct {
	registry  *dynlib.Registry
	validator *validatorpkg.Validate
}

// New constructs a Loader backed by registry.
func New(registry *dynlib.Registry) *Loader {
	return &Loader{registry: registry, validator: validatorpkg.New()}
}

// Load consumes doc (expected to be the result of unmarshaling a document
// into map[string]interface{}) and produces a DAG.
func (l *Loader) Load(doc map[string]interface{}) (*dag.DAG, error) {
	root, err := requireRoot(doc)
	if err != nil {
		return nil, err
	}

	title, _ := stringField(root, "Title", false)
	configRaw, err := marshalSubtree(root["Configuration"])
	if err != nil {
		return nil, dagerrors.Wrap(dagerrors.CodeWrongType, "DAG.Configuration is not serializable", err)
	}

	d := dag.New(title, configRaw)

	verticesRaw, hasVertices := root["Vertices"]
	if hasVertices {
		vertices, ok := verticesRaw.([]interface{})
		if !ok {
			return nil, dagerrors.New(dagerrors.CodeWrongType, "DAG.Vertices must be a sequence")
		}
		for i, raw := range vertices {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				return nil, dagerrors.New(dagerrors.CodeWrongType, fmt.Sprintf("DAG.Vertices[%d] must be a mapping", i))
			}
			vertex, err := l.buildVertex(entry)
			if err != nil {
				return nil, err
			}
			if err := d.AddVertex(vertex); err != nil {
				return nil, err
			}
		}
	}

	connectionsRaw, hasConnections := root["Connections"]
	if hasConnections {
		connections, ok := connectionsRaw.([]interface{})
		if !ok {
			return nil, dagerrors.New(dagerrors.CodeWrongType, "DAG.Connections must be a sequence")
		}
		for i, raw := range connections {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				return nil, dagerrors.New(dagerrors.CodeWrongType, fmt.Sprintf("DAG.Connections[%d] must be a mapping", i))
			}
			fromStr, err := stringField(entry, "From", true)
			if err != nil {
				return nil, err
			}
			toStr, err := stringField(entry, "To", true)
			if err != nil {
				return nil, err
			}
			fromID, err := parseIdentifier(fromStr)
			if err != nil {
				return nil, err
			}
			toID, err := parseIdentifier(toStr)
			if err != nil {
				return nil, err
			}
			if err := d.ConnectByID(fromID, toID); err != nil {
				return nil, err
			}
		}
	}

	return d, nil
}

func (l *Loader) buildVertex(entry map[string]interface{}) (*dag.Vertex, error) {
	uuidStr, err := stringField(entry, "UUID", true)
	if err != nil {
		return nil, err
	}
	vertexID, err := parseIdentifier(uuidStr)
	if err != nil {
		return nil, err
	}
	name, _ := stringField(entry, "Name", false)

	taskRaw, ok := entry["Task"]
	if !ok {
		return nil, dagerrors.New(dagerrors.CodeMissingKey, "vertex "+uuidStr+" is missing Task")
	}
	taskEntry, ok := taskRaw.(map[string]interface{})
	if !ok {
		return nil, dagerrors.New(dagerrors.CodeWrongType, "vertex "+uuidStr+" Task must be a mapping")
	}

	t, err := l.buildTask(taskEntry)
	if err != nil {
		return nil, err
	}

	return dag.NewVertexWithID(vertexID, name, t), nil
}

func (l *Loader) buildTask(entry map[string]interface{}) (*task.Task, error) {
	name, _ := stringField(entry, "Name", false)

	configRaw, err := marshalSubtree(entry["Configuration"])
	if err != nil {
		return nil, dagerrors.Wrap(dagerrors.CodeWrongType, "Task.Configuration is not serializable", err)
	}
	inputsRaw, err := marshalSubtree(entry["InitialInputs"])
	if err != nil {
		return nil, dagerrors.Wrap(dagerrors.CodeWrongType, "Task.InitialInputs is not serializable", err)
	}

	var stages []stage.Stage
	if stagesRaw, ok := entry["Stages"]; ok {
		stageEntries, ok := stagesRaw.([]interface{})
		if !ok {
			return nil, dagerrors.New(dagerrors.CodeWrongType, "Task.Stages must be a sequence")
		}
		for i, raw := range stageEntries {
			stageEntry, ok := raw.(map[string]interface{})
			if !ok {
				return nil, dagerrors.New(dagerrors.CodeWrongType, fmt.Sprintf("Task.Stages[%d] must be a mapping", i))
			}
			s, err := l.buildStage(stageEntry)
			if err != nil {
				return nil, err
			}
			stages = append(stages, s)
		}
	}

	t := task.New(name, stages, configRaw, inputsRaw)

	if callbackRaw, ok := entry["Callback"]; ok {
		callbackEntry, ok := callbackRaw.(map[string]interface{})
		if !ok {
			return nil, dagerrors.New(dagerrors.CodeWrongType, "Task.Callback must be a mapping")
		}
		if err := l.attachCallback(t, callbackEntry); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (l *Loader) buildStage(entry map[string]interface{}) (stage.Stage, error) {
	libraryName, err := stringField(entry, "LibraryName", true)
	if err != nil {
		return nil, err
	}
	symbolName, err := stringField(entry, "SymbolName", true)
	if err != nil {
		return nil, err
	}
	label, _ := stringField(entry, "Name", false)

	handle, err := l.registry.RegisterLibrary(libraryName)
	if err != nil {
		return nil, err
	}
	raw, err := l.registry.Resolve(handle, symbolName)
	if err != nil {
		return nil, err
	}
	factory, ok := raw.(StageFactory)
	if !ok {
		if fn, ok := raw.(func(string) stage.Stage); ok {
			factory = StageFactory(fn)
		} else {
			return nil, dagerrors.New(dagerrors.CodeSymbolNotFound, symbolName+" is not a stage factory")
		}
	}
	return factory(label), nil
}

func (l *Loader) attachCallback(t *task.Task, entry map[string]interface{}) error {
	libraryName, err := stringField(entry, "LibraryName", true)
	if err != nil {
		return err
	}
	symbolName, err := stringField(entry, "SymbolName", true)
	if err != nil {
		return err
	}
	kind, err := stringField(entry, "Type", true)
	if err != nil {
		return err
	}
	if err := l.validator.Var(kind, "oneof=Plugin Function"); err != nil {
		return dagerrors.New(dagerrors.CodeWrongType, "Callback.Type must be Plugin or Function")
	}

	handle, err := l.registry.RegisterLibrary(libraryName)
	if err != nil {
		return err
	}
	raw, err := l.registry.Resolve(handle, symbolName)
	if err != nil {
		return err
	}

	switch kind {
	case "Function":
		factory, ok := raw.(CallbackFuncFactory)
		if !ok {
			if fn, ok := raw.(func() task.CallbackFunc); ok {
				return t.SetCallbackFunc(fn())
			}
			if fn, ok := raw.(func(bool)); ok {
				return t.SetCallbackFunc(fn)
			}
			return dagerrors.New(dagerrors.CodeSymbolNotFound, symbolName+" is not a function callback")
		}
		return t.SetCallbackFunc(factory())
	case "Plugin":
		factory, ok := raw.(CallbackPluginFactory)
		if !ok {
			fn, isFactory := raw.(func() task.CallbackPlugin)
			if !isFactory {
				return dagerrors.New(dagerrors.CodeSymbolNotFound, symbolName+" is not a plugin callback factory")
			}
			factory = CallbackPluginFactory(fn)
		}
		return t.SetCallbackPlugin(factory())
	default:
		return dagerrors.New(dagerrors.CodeWrongType, "Callback.Type must be Plugin or Function")
	}
}

func requireRoot(doc map[string]interface{}) (map[string]interface{}, error) {
	raw, ok := doc["DAG"]
	if !ok {
		return nil, dagerrors.New(dagerrors.CodeWrongRoot, "document root must be DAG; sample:\n"+sampleDocument)
	}
	root, ok := raw.(map[string]interface{})
	if !ok {
		return nil, dagerrors.New(dagerrors.CodeWrongRoot, "DAG root must be a mapping; sample:\n"+sampleDocument)
	}
	return root, nil
}

func stringField(m map[string]interface{}, key string, required bool) (string, error) {
	raw, ok := m[key]
	if !ok {
		if required {
			return "", dagerrors.New(dagerrors.CodeMissingKey, key+" is required")
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", dagerrors.New(dagerrors.CodeWrongType, key+" must be a string")
	}
	return s, nil
}

func parseIdentifier(s string) (id.Identifier, error) {
	parsed, err := id.Parse(s)
	if err != nil {
		return id.Identifier{}, dagerrors.Wrap(dagerrors.CodeWrongType, "invalid identifier "+s, err)
	}
	return parsed, nil
}

func marshalSubtree(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
