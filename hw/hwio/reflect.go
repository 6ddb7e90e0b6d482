package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type bankReg struct {
	offset uint8
	regPtr any
}

type tagOptions map[string]string

func parseTag(tag string) (tagOptions, error) {
	opts := make(tagOptions)
	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, _ := strings.Cut(opt, "=")
		if _, dup := opts[key]; dup {
			return nil, fmt.Errorf("duplicated option %q", key)
		}
		opts[key] = val
	}
	return opts, nil
}

func (opts tagOptions) uint8(key string) (uint8, bool, error) {
	s, ok := opts[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, true, fmt.Errorf("option %s=%q: %w", key, s, err)
	}
	return uint8(v), true, nil
}

// cbName returns the name of the method to bind for callback option key
// ("rcb", "wcb" or "pcb"), or "" if the option is absent.
func (opts tagOptions) cbName(key, prefix, field string) string {
	name, ok := opts[key]
	if !ok {
		return ""
	}
	if name == "" {
		name = prefix + strings.ToUpper(field)
	}
	return name
}

func bindMethod[T any](bank reflect.Value, name string) (T, error) {
	var zero T
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("missing callback method %s on %s", name, bank.Type())
	}
	fn, ok := m.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("callback method %s has signature %s, want %T", name, m.Type(), zero)
	}
	return fn, nil
}

func rwFlags(opts tagOptions) (RWFlags, error) {
	_, ro := opts["readonly"]
	_, wo := opts["writeonly"]
	switch {
	case ro && wo:
		return 0, fmt.Errorf("readonly and writeonly are mutually exclusive")
	case ro:
		return ReadOnlyFlag, nil
	case wo:
		return WriteOnlyFlag, nil
	}
	return ReadWriteFlag, nil
}

func initReg8(bank reflect.Value, name string, reg *Reg8, opts tagOptions) error {
	reg.Name = name

	reset, _, err := opts.uint8("reset")
	if err != nil {
		return err
	}
	reg.Value = reset

	if rw, ok, err := opts.uint8("rwmask"); err != nil {
		return err
	} else if ok {
		reg.RoMask = ^rw
	}

	if reg.Flags, err = rwFlags(opts); err != nil {
		return err
	}

	if cb := opts.cbName("rcb", "Read", name); cb != "" {
		if reg.ReadCb, err = bindMethod[func(uint8) uint8](bank, cb); err != nil {
			return err
		}
	}
	if cb := opts.cbName("pcb", "Peek", name); cb != "" {
		if reg.PeekCb, err = bindMethod[func(uint8) uint8](bank, cb); err != nil {
			return err
		}
	}
	if cb := opts.cbName("wcb", "Write", name); cb != "" {
		if reg.WriteCb, err = bindMethod[func(uint8, uint8)](bank, cb); err != nil {
			return err
		}
	}
	return nil
}

func initDevice(bank reflect.Value, name string, dev *Device, opts tagOptions) error {
	dev.Name = name

	s, ok := opts["size"]
	if !ok {
		return fmt.Errorf("device requires a size option")
	}
	size, err := strconv.ParseUint(s, 0, 16)
	if err != nil || size == 0 || size > 0x100 {
		return fmt.Errorf("invalid device size %q", s)
	}
	dev.Size = int(size)

	if dev.Flags, err = rwFlags(opts); err != nil {
		return err
	}

	if cb := opts.cbName("rcb", "Read", name); cb != "" {
		if dev.ReadCb, err = bindMethod[func(uint8) uint8](bank, cb); err != nil {
			return err
		}
	}
	if cb := opts.cbName("pcb", "Peek", name); cb != "" {
		if dev.PeekCb, err = bindMethod[func(uint8) uint8](bank, cb); err != nil {
			return err
		}
	}
	if cb := opts.cbName("wcb", "Write", name); cb != "" {
		if dev.WriteCb, err = bindMethod[func(uint8, uint8)](bank, cb); err != nil {
			return err
		}
	}
	return nil
}

var (
	reg8Type   = reflect.TypeFor[Reg8]()
	deviceType = reflect.TypeFor[Device]()
)

// InitRegs initializes all Reg8 and Device fields of the structure pointed to
// by data, according to their "hwio" struct tags. Callbacks are bound to the
// methods of data: a "wcb" option on field Foo binds WriteFOO, unless a method
// name is given explicitly ("wcb=OnFoo").
func InitRegs(data any) error {
	ptr := reflect.ValueOf(data)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("InitRegs: want pointer to struct, got %T", data)
	}
	val := ptr.Elem()

	for i := range val.NumField() {
		field := val.Type().Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("%s: %w", field.Name, err)
		}

		switch field.Type {
		case reg8Type:
			err = initReg8(ptr, field.Name, val.Field(i).Addr().Interface().(*Reg8), opts)
		case deviceType:
			err = initDevice(ptr, field.Name, val.Field(i).Addr().Interface().(*Device), opts)
		default:
			err = fmt.Errorf("unsupported register type %s", field.Type)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", field.Name, err)
		}
	}
	return nil
}

func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	ptr := reflect.ValueOf(bank)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("MapBank: want pointer to struct, got %T", bank)
	}
	val := ptr.Elem()

	var regs []bankReg
	for i := range val.NumField() {
		field := val.Type().Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.Name, err)
		}

		offset, ok, err := opts.uint8("offset")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.Name, err)
		}
		if !ok {
			continue
		}

		num := 0
		if s, ok := opts["bank"]; ok {
			if num, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("%s: invalid bank %q", field.Name, s)
			}
		}
		if num != bankNum {
			continue
		}

		regs = append(regs, bankReg{
			offset: offset,
			regPtr: val.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}
