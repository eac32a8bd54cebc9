package layout

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultLayout is the layout used when none is specified.
const DefaultLayout = "ota_1"

var builtin = []*Layout{
	MustNew("ota_1",
		Partition{Name: "bootloader", StartAddress: 0x000000, Size: 0x011000, MappedAddress: 0x000000, Code: true},
		Partition{Name: "app", StartAddress: 0x011000, Size: 0x121000, MappedAddress: 0x010000, Code: true},
		Partition{Name: "download", StartAddress: 0x132000, Size: 0x0AE000, MappedAddress: 0x120000},
	),
	MustNew("ota_2",
		Partition{Name: "bootloader", StartAddress: 0x000000, Size: 0x011000, MappedAddress: 0x000000, Code: true},
		Partition{Name: "app", StartAddress: 0x011000, Size: 0x119000, MappedAddress: 0x010000, Code: true},
		Partition{Name: "download", StartAddress: 0x12A000, Size: 0x0A6000, MappedAddress: 0x118000},
	),
}

// Registry maps layout names to layouts.
type Registry struct {
	layouts map[string]*Layout
}

// NewRegistry returns a registry holding the built-in layouts.
func NewRegistry() *Registry {
	r := &Registry{layouts: make(map[string]*Layout, len(builtin))}
	for _, l := range builtin {
		r.layouts[l.Name()] = l
	}
	return r
}

// Add registers l, replacing any layout with the same name.
func (r *Registry) Add(l *Layout) {
	r.layouts[l.Name()] = l
}

// Get returns the layout registered under name.
func (r *Registry) Get(name string) (*Layout, error) {
	l, ok := r.layouts[name]
	if !ok {
		return nil, &NotFoundError{Name: name, Known: r.Names()}
	}
	return l, nil
}

// Names returns the registered layout names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a built-in layout.
func Get(name string) (*Layout, error) {
	return NewRegistry().Get(name)
}

// partitionConfig is the YAML shape of a partition. Numbers are kept as
// strings so both 0x-prefixed and decimal values are accepted.
type partitionConfig struct {
	Name   string `mapstructure:"name"`
	Start  string `mapstructure:"start"`
	Size   string `mapstructure:"size"`
	Mapped string `mapstructure:"mapped"`
	Code   bool   `mapstructure:"code"`
}

type layoutConfig struct {
	Partitions []partitionConfig `mapstructure:"partitions"`
}

// Load reads additional layouts from a YAML file and adds them to the
// registry. Layouts named like a built-in one replace it.
//
// Example file:
//
//	layouts:
//	  custom:
//	    partitions:
//	      - name: bootloader
//	        start: 0x0
//	        size: 0x11000
//	        mapped: 0x0
//	        code: true
func (r *Registry) Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read layouts from %s", path)
	}

	var raw map[string]layoutConfig
	if err := v.UnmarshalKey("layouts", &raw); err != nil {
		return errors.Wrapf(err, "decode layouts from %s", path)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		l, err := buildLayout(name, raw[name])
		if err != nil {
			return errors.Wrapf(err, "layouts file %s", path)
		}
		r.Add(l)
	}

	return nil
}

func buildLayout(name string, cfg layoutConfig) (*Layout, error) {
	partitions := make([]Partition, 0, len(cfg.Partitions))
	for i, pc := range cfg.Partitions {
		start, err := parseAddress(pc.Start)
		if err != nil {
			return nil, errors.Wrapf(err, "layout %s: partition %d start", name, i)
		}
		size, err := parseAddress(pc.Size)
		if err != nil {
			return nil, errors.Wrapf(err, "layout %s: partition %d size", name, i)
		}
		mapped, err := parseAddress(pc.Mapped)
		if err != nil {
			return nil, errors.Wrapf(err, "layout %s: partition %d mapped address", name, i)
		}
		partitions = append(partitions, Partition{
			Name:          pc.Name,
			StartAddress:  start,
			Size:          size,
			MappedAddress: mapped,
			Code:          pc.Code,
		})
	}
	return New(name, partitions...)
}

func parseAddress(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid address %q", s)
	}
	return uint32(v), nil
}

// NotFoundError indicates that a layout name is not registered.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown flash layout %q (known: %v)", e.Name, e.Known)
}
