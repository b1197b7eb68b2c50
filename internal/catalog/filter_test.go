package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"
)

func model(id, name string, contextLength int, params ...string) api.Model {
	return api.Model{ID: id, Name: name, ContextLength: contextLength, SupportedParameters: params}
}

func ids(models []api.Model) []string {
	out := make([]string, 0, len(models))
	for _, m := range models {
		out = append(out, m.ID)
	}
	return out
}

func TestFilterByName(t *testing.T) {
	models := []api.Model{
		model("meta-llama/llama-3.2-3b", "Llama 3.2 3B", 131072),
		model("qwen/qwen-2.5-7b", "Qwen 2.5 7B", 32768),
		model("meta-llama/llama-3.1-8b", "Llama 3.1 8B", 131072),
	}

	got := Filter(models, Criteria{Name: "llama"})
	assert.Equal(t, []string{"meta-llama/llama-3.2-3b", "meta-llama/llama-3.1-8b"}, ids(got))
}

func TestFilterNameIsCaseInsensitive(t *testing.T) {
	models := []api.Model{model("x/y", "DeepSeek R1", 64000)}

	assert.Len(t, Filter(models, Criteria{Name: "deepseek"}), 1)
	assert.Len(t, Filter(models, Criteria{Name: "DEEPSEEK"}), 1)
	assert.Empty(t, Filter(models, Criteria{Name: "mistral"}))
}

func TestFilterByProvider(t *testing.T) {
	models := []api.Model{
		model("meta-llama/llama-3.2-3b", "Llama", 131072),
		model("qwen/qwen-2.5-7b", "Qwen", 32768),
	}

	got := Filter(models, Criteria{Provider: "qwen"})
	assert.Equal(t, []string{"qwen/qwen-2.5-7b"}, ids(got))
}

func TestFilterByMinContextLength(t *testing.T) {
	models := []api.Model{
		model("a/small", "Small", 8192),
		model("b/large", "Large", 131072),
	}

	got := Filter(models, Criteria{MinContextLength: 32000})
	assert.Equal(t, []string{"b/large"}, ids(got))
}

func TestFilterByRequiredParameters(t *testing.T) {
	models := []api.Model{
		model("a/tools", "Tools", 8192, "tools", "temperature"),
		model("b/plain", "Plain", 8192, "temperature"),
	}

	got := Filter(models, Criteria{RequireParams: []string{"tools"}})
	assert.Equal(t, []string{"a/tools"}, ids(got))

	got = Filter(models, Criteria{RequireParams: []string{"tools", "top_k"}})
	assert.Empty(t, got)
}

func TestFilterCombinesCriteria(t *testing.T) {
	models := []api.Model{
		model("meta-llama/llama-big", "Llama Big", 131072),
		model("meta-llama/llama-small", "Llama Small", 4096),
		model("qwen/qwen-big", "Qwen Big", 131072),
	}

	got := Filter(models, Criteria{Provider: "meta-llama", MinContextLength: 32000})
	assert.Equal(t, []string{"meta-llama/llama-big"}, ids(got))
}

func TestFilterPreservesOrder(t *testing.T) {
	models := []api.Model{
		model("c/one", "X", 100),
		model("a/two", "X", 100),
		model("b/three", "X", 100),
	}

	got := Filter(models, Criteria{Name: "x"})
	assert.Equal(t, []string{"c/one", "a/two", "b/three"}, ids(got))
}

func TestSortByContextLengthDescending(t *testing.T) {
	models := []api.Model{
		model("a/small", "Small", 8192),
		model("b/large", "Large", 131072),
		model("c/mid", "Mid", 32768),
	}

	got := Sort(models, "context_length", true)
	assert.Equal(t, []string{"b/large", "c/mid", "a/small"}, ids(got))
}

func TestSortByNameAscending(t *testing.T) {
	models := []api.Model{
		model("1", "zeta", 0),
		model("2", "Alpha", 0),
		model("3", "beta", 0),
	}

	got := Sort(models, "name", false)
	assert.Equal(t, []string{"2", "3", "1"}, ids(got))
}

func TestSortIsStable(t *testing.T) {
	models := []api.Model{
		model("first", "X", 100),
		model("second", "X", 100),
		model("third", "X", 100),
	}

	got := Sort(models, "context_length", true)
	assert.Equal(t, []string{"first", "second", "third"}, ids(got))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	models := []api.Model{
		model("b", "B", 1),
		model("a", "A", 2),
	}

	_ = Sort(models, "id", false)
	assert.Equal(t, []string{"b", "a"}, ids(models))
}

func TestSelectAppliesLimitAfterSort(t *testing.T) {
	models := []api.Model{
		model("a/small", "Small", 8192),
		model("b/large", "Large", 131072),
		model("c/mid", "Mid", 32768),
	}

	// The limit must keep the top of the sorted order, not the first
	// entries of the raw listing.
	got := Select(models, Criteria{Limit: 2}, "context_length", true)
	assert.Equal(t, []string{"b/large", "c/mid"}, ids(got))
}

func TestSelectZeroLimitKeepsAll(t *testing.T) {
	models := []api.Model{
		model("a", "A", 1),
		model("b", "B", 2),
	}

	got := Select(models, Criteria{}, "id", false)
	assert.Len(t, got, 2)
}
