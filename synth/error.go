package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xtgo/set"

	"github.com/conjugo/conjugo/model"
)

// MissingSamplerError reports every latent variable for which the discovery
// pass registered no candidate. It is raised only after all other variables
// have been attempted, and no partial result accompanies it.
type MissingSamplerError struct {
	Variables []*model.Variable
}

func (e *MissingSamplerError) Error() string {
	names := make([]string, len(e.Variables))
	for i, v := range e.Variables {
		if v.Name != "" {
			names[i] = v.Name
		} else {
			names[i] = v.String()
		}
	}
	sort.Strings(names)
	names = names[:set.Uniq(sort.StringSlice(names))]
	return fmt.Sprintf("no posterior sampler for %s", strings.Join(names, ", "))
}
