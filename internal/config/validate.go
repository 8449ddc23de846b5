package config

import (
	"errors"
	"fmt"
	"strings"

	"api_crowdsale/internal/units"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks field formats and cross-field rules, reporting every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
	}

	amounts := map[string]string{
		"sale.hard_cap_ether":   c.Sale.HardCapEther,
		"sale.tokens_cap_ether": c.Sale.TokensCapEther,
	}
	if c.Token.SupplyEther != "" {
		amounts["token.supply_ether"] = c.Token.SupplyEther
	}
	for i, g := range c.Genesis {
		if g.BalanceEther != "" {
			amounts[fmt.Sprintf("genesis[%d].balance_ether", i)] = g.BalanceEther
		}
		if g.TokensEther != "" {
			amounts[fmt.Sprintf("genesis[%d].tokens_ether", i)] = g.TokensEther
		}
	}
	for key, value := range amounts {
		if _, err := units.ParseEther(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if v, err := units.ParseWei(c.Sale.Rate); err != nil {
		problems = append(problems, fmt.Sprintf("sale.rate: %v", err))
	} else if v.IsZero() {
		problems = append(problems, "sale.rate must be positive")
	}
	if v, err := units.ParseEther(c.Sale.HardCapEther); err == nil && v.IsZero() {
		problems = append(problems, "sale.hard_cap_ether must be positive")
	}

	if c.IsMainnet() {
		if strings.TrimSpace(c.Token.Address) == "" {
			problems = append(problems, "token.address is required on mainnet")
		}
		if strings.TrimSpace(c.Forwarder.URL) == "" {
			problems = append(problems, "forwarder.url is required on mainnet")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
