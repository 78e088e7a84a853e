package specloader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/dagflow/internal/dynlib"
	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/stage"
	dagerrors "github.com/alexisbeaulieu97/dagflow/pkg/errors"
)

type echoStage struct {
	label   string
	stageID id.Identifier
}

func (e *echoStage) Label() string          { return e.label }
func (e *echoStage) ID() id.Identifier      { return e.stageID }
func (e *echoStage) IsRunning() bool        { return false }
func (e *echoStage) Cleanup()               {}
func (e *echoStage) End() bool              { return true }
func (e *echoStage) Clone() stage.Stage     { return &echoStage{label: e.label, stageID: id.New()} }
func (e *echoStage) Run(ctx context.Context) (bool, error) {
	return true, nil
}

func newEchoStage(label string) stage.Stage {
	return &echoStage{label: label, stageID: id.New()}
}

type fakeSymboler struct {
	symbols map[string]interface{}
}

func (f fakeSymboler) Lookup(symbol string) (interface{}, error) {
	v, ok := f.symbols[symbol]
	if !ok {
		return nil, errors.New("symbol not found")
	}
	return v, nil
}

type fakeOpener struct {
	libs map[string]fakeSymboler
}

func (f *fakeOpener) Open(path string) (dynlib.Symboler, error) {
	lib, ok := f.libs[path]
	if !ok {
		return nil, errors.New("no such library")
	}
	return lib, nil
}

func newTestRegistry() *dynlib.Registry {
	opener := &fakeOpener{libs: map[string]fakeSymboler{
		"./stages/echo.so": {symbols: map[string]interface{}{
			"NewEchoStage": StageFactory(newEchoStage),
		}},
	}}
	return dynlib.NewRegistryWithOpener(opener)
}

func TestLoadRejectsMissingRoot(t *testing.T) {
	l := New(newTestRegistry())
	_, err := l.Load(map[string]interface{}{})
	require.Error(t, err)
	require.Equal(t, dagerrors.CodeWrongRoot, dagerrors.CodeOf(err))
}

func TestLoadBuildsVertexAndConnections(t *testing.T) {
	l := New(newTestRegistry())

	idA := id.New().String()
	idB := id.New().String()

	doc := map[string]interface{}{
		"DAG": map[string]interface{}{
			"Title": "example",
			"Vertices": []interface{}{
				map[string]interface{}{
					"UUID": idA,
					"Name": "a",
					"Task": map[string]interface{}{
						"Stages": []interface{}{
							map[string]interface{}{
								"LibraryName": "./stages/echo.so",
								"SymbolName":  "NewEchoStage",
							},
						},
					},
				},
				map[string]interface{}{
					"UUID": idB,
					"Name": "b",
					"Task": map[string]interface{}{},
				},
			},
			"Connections": []interface{}{
				map[string]interface{}{"From": idA, "To": idB},
			},
		},
	}

	d, err := l.Load(doc)
	require.NoError(t, err)
	require.Equal(t, "example", d.Title())
	require.Equal(t, 2, d.VertexCount())
	require.Equal(t, 1, d.EdgeCount())
}

func TestLoadFailsOnUnknownLibrary(t *testing.T) {
	l := New(newTestRegistry())

	doc := map[string]interface{}{
		"DAG": map[string]interface{}{
			"Vertices": []interface{}{
				map[string]interface{}{
					"UUID": id.New().String(),
					"Task": map[string]interface{}{
						"Stages": []interface{}{
							map[string]interface{}{
								"LibraryName": "./missing.so",
								"SymbolName":  "Nope",
							},
						},
					},
				},
			},
		},
	}

	_, err := l.Load(doc)
	require.Error(t, err)
	require.Equal(t, dagerrors.CodeLibraryLoadFailed, dagerrors.CodeOf(err))
}

func TestLoadFailsOnCyclicConnection(t *testing.T) {
	l := New(newTestRegistry())

	idA := id.New().String()
	idB := id.New().String()

	doc := map[string]interface{}{
		"DAG": map[string]interface{}{
			"Vertices": []interface{}{
				map[string]interface{}{"UUID": idA, "Task": map[string]interface{}{}},
				map[string]interface{}{"UUID": idB, "Task": map[string]interface{}{}},
			},
			"Connections": []interface{}{
				map[string]interface{}{"From": idA, "To": idB},
				map[string]interface{}{"From": idB, "To": idA},
			},
		},
	}

	_, err := l.Load(doc)
	require.Error(t, err)
	require.Equal(t, dagerrors.CodeWouldBeCyclic, dagerrors.CodeOf(err))
}
