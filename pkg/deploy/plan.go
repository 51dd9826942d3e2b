// Package deploy deploys the bridge contract suite to one network from a YAML plan and
// records the resulting addresses.
package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PlanFile is the on-disk layout: one plan per network name.
type PlanFile struct {
	Networks map[string]*Plan `yaml:"networks" validate:"required,min=1,dive"`
}

// Plan describes one network deployment.
type Plan struct {
	// Key is the plan's name in the file; it names the output record.
	Key     string `yaml:"-"`
	Network string `yaml:"network" validate:"required"`
	ChainID uint64 `yaml:"chain_id" validate:"required"`
	RPCURL  string `yaml:"rpc_url" validate:"required,url"`
	// GasPrice is an amount such as "20 gwei"; empty lets the node suggest one.
	GasPrice string `yaml:"gas_price"`
	GasLimit uint64 `yaml:"gas_limit"`
	// MinBalance in ether the deployer must hold before anything is sent.
	MinBalance   string     `yaml:"min_balance" default:"0.1" validate:"numeric"`
	ArtifactsDir string     `yaml:"artifacts_dir" default:"artifacts"`
	OutputDir    string     `yaml:"output_dir" default:"deployments"`
	Contracts    []Contract `yaml:"contracts" validate:"required,min=1,dive"`
}

// Contract is one contract of the plan, deployed in plan order.
type Contract struct {
	Name string `yaml:"name" validate:"required"`
	// Artifact is the Hardhat artifact path relative to the artifacts dir. It defaults
	// to contracts/<Name>.sol/<Name>.json.
	Artifact string `yaml:"artifact"`
	// Args are constructor arguments. "$deployer" is the deployer address and
	// "$<Name>" the address of a contract deployed earlier in the plan.
	Args []string `yaml:"args"`
}

// ArtifactPath returns where the contract's Hardhat artifact lives.
func (p *Plan) ArtifactPath(c Contract) string {
	if c.Artifact != "" {
		return filepath.Join(p.ArtifactsDir, c.Artifact)
	}
	return filepath.Join(p.ArtifactsDir, "contracts", c.Name+".sol", c.Name+".json")
}

// OutputPath returns <output dir>/<key>.json.
func (p *Plan) OutputPath() string {
	return filepath.Join(p.OutputDir, p.fileName()+".json")
}

// PartialOutputPath is where an interrupted deployment is recorded.
func (p *Plan) PartialOutputPath() string {
	return filepath.Join(p.OutputDir, p.fileName()+".partial.json")
}

func (p *Plan) fileName() string {
	if p.Key != "" {
		return p.Key
	}
	return p.Network
}

// LoadPlans reads and validates a plan file. A plan's network defaults to its key.
func LoadPlans(path string) (map[string]*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var file PlanFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	for name, plan := range file.Networks {
		if plan == nil {
			return nil, fmt.Errorf("network %s: empty plan", name)
		}
		plan.Key = name
		if plan.Network == "" {
			plan.Network = name
		}
		if err := defaults.Set(plan); err != nil {
			return nil, fmt.Errorf("network %s: failed to apply defaults: %w", name, err)
		}
	}

	if err := validator.New().Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid plan file: %w", err)
	}
	for name, plan := range file.Networks {
		if plan.GasPrice != "" {
			if _, err := ParseAmount(plan.GasPrice); err != nil {
				return nil, fmt.Errorf("network %s: invalid gas price: %w", name, err)
			}
		}
		if err := plan.checkReferences(); err != nil {
			return nil, fmt.Errorf("network %s: %w", name, err)
		}
	}
	return file.Networks, nil
}

// checkReferences rejects duplicate names and "$Name" arguments that point forward.
func (p *Plan) checkReferences() error {
	deployed := make(map[string]struct{}, len(p.Contracts))
	for _, c := range p.Contracts {
		if _, dup := deployed[c.Name]; dup {
			return fmt.Errorf("contract %s listed twice", c.Name)
		}
		for _, arg := range c.Args {
			ref, ok := reference(arg)
			if !ok || ref == deployerRef {
				continue
			}
			if _, ok := deployed[ref]; !ok {
				return fmt.Errorf("contract %s references %s before it is deployed", c.Name, ref)
			}
		}
		deployed[c.Name] = struct{}{}
	}
	return nil
}

// Networks returns the plan names in sorted order.
func Networks(plans map[string]*Plan) []string {
	names := make([]string, 0, len(plans))
	for name := range plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
