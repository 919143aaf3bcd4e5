package cmd

import (
	"github.com/pkg/errors"

	// register the conjugacy catalog into synth.SamplerRules
	_ "github.com/conjugo/conjugo/conjugacy"
	"github.com/conjugo/conjugo/model"
)

// DemoModel builds one of the built-in example models and returns its
// observed mapping.
func DemoModel(name string) (map[*model.Variable]*model.Variable, error) {
	switch name {
	case "betabinomial":
		p := model.Beta(model.Const(1), model.Const(1)).Named("p")
		y := model.Binomial(model.Symbol("n", model.Int), p).Named("y")
		return map[*model.Variable]*model.Variable{
			y: model.Symbol("y_obs", model.Int),
		}, nil
	case "gammapoisson":
		r := model.Gamma(model.Const(2), model.Const(1)).Named("rate")
		y := model.Poisson(r).Named("y")
		return map[*model.Variable]*model.Variable{
			y: model.Symbol("y_obs", model.Int),
		}, nil
	case "normal":
		mu := model.Normal(model.Const(0), model.Const(10)).Named("mu")
		y := model.Normal(mu, model.Symbol("sigma", model.Real)).Named("y")
		return map[*model.Variable]*model.Variable{
			y: model.Symbol("y_obs", model.Real),
		}, nil
	default:
		return nil, errors.Errorf("unknown demo model %q (try betabinomial, gammapoisson or normal)", name)
	}
}

// DemoModels lists the names DemoModel accepts.
func DemoModels() []string {
	return []string{"betabinomial", "gammapoisson", "normal"}
}
