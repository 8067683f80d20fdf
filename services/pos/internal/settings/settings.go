// Package settings reads the restaurant settings file: restaurant details,
// tax configuration and station routing overrides.
package settings

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/appetiteclub/appetite/pkg/enums/station"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Settings struct {
	Restaurant Restaurant        `mapstructure:"restaurant"`
	Tax        Tax               `mapstructure:"tax"`
	Stations   map[string]string `mapstructure:"stations"`
}

type Restaurant struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	GSTIN   string `mapstructure:"gstin"`
}

type Tax struct {
	CGSTRate             float64 `mapstructure:"cgst_rate"`
	SGSTRate             float64 `mapstructure:"sgst_rate"`
	IGSTRate             float64 `mapstructure:"igst_rate"`
	ServiceChargePercent float64 `mapstructure:"service_charge_percent"`
	EnableRounding       bool    `mapstructure:"enable_rounding"`
	RoundingUnit         float64 `mapstructure:"rounding_unit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("restaurant.name", "Appetite")
	v.SetDefault("tax.cgst_rate", 2.5)
	v.SetDefault("tax.sgst_rate", 2.5)
	v.SetDefault("tax.igst_rate", 0)
	v.SetDefault("tax.service_charge_percent", 5)
	v.SetDefault("tax.enable_rounding", true)
	v.SetDefault("tax.rounding_unit", 1)
}

// Default returns the settings used when no file is present.
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	_ = v.Unmarshal(&s)
	return &s
}

// Load reads a TOML settings file. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	t := s.Tax
	for name, v := range map[string]float64{
		"cgst_rate":              t.CGSTRate,
		"sgst_rate":              t.SGSTRate,
		"igst_rate":              t.IGSTRate,
		"service_charge_percent": t.ServiceChargePercent,
		"rounding_unit":          t.RoundingUnit,
	} {
		if v < 0 {
			return fmt.Errorf("invalid settings: tax.%s cannot be negative", name)
		}
	}
	for category, name := range s.Stations {
		if station.ByName(name) == nil {
			return fmt.Errorf("invalid settings: category %q routed to unknown station %q", category, name)
		}
	}
	return nil
}

// TaxRate is the combined percentage applied to an order subtotal.
func (s *Settings) TaxRate() decimal.Decimal {
	t := s.Tax
	return decimal.NewFromFloat(t.CGSTRate).
		Add(decimal.NewFromFloat(t.SGSTRate)).
		Add(decimal.NewFromFloat(t.IGSTRate))
}

// InterState reports whether tax is charged as IGST.
func (s *Settings) InterState() bool {
	return s.Tax.IGSTRate > 0
}

// Rates returns the pricing rates for a new order, without discount.
func (s *Settings) Rates() pricing.Rates {
	unit := decimal.Zero
	if s.Tax.EnableRounding {
		unit = decimal.NewFromFloat(s.Tax.RoundingUnit)
	}
	return pricing.Rates{
		TaxPercent:           s.TaxRate(),
		ServiceChargePercent: decimal.NewFromFloat(s.Tax.ServiceChargePercent),
		DiscountPercent:      decimal.Zero,
		RoundingUnit:         unit,
	}
}

func (s *Settings) StationMapper() station.Mapper {
	return station.NewMapper(s.Stations)
}
