package host

import (
	"regexp"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/renderloop/occlusion/engine"
	"github.com/renderloop/occlusion/errors"
)

// abiWIT is the guest ABI as a WIT fragment. WIT kebab-case names map to
// snake_case core wasm export names.
const abiWIT = `
	reserve: func(size: u32) -> u32
	composite-occlusion: func(target: u32, occluder: u32, len: u32)
`

type funcSignature struct {
	text    string
	params  []wit.Type
	results []wit.Type
}

var funcPattern = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^\n;]+))?`)

// abiSignatures parses abiWIT into per-export signatures.
func abiSignatures() (map[string]*funcSignature, error) {
	funcs := make(map[string]*funcSignature)

	for _, match := range funcPattern.FindAllStringSubmatch(abiWIT, -1) {
		name := strings.ReplaceAll(match[1], "-", "_")
		sig := &funcSignature{text: strings.TrimSpace(match[0])}

		paramsStr := strings.TrimSpace(match[2])
		if paramsStr != "" {
			for _, p := range strings.Split(paramsStr, ",") {
				typStr := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typStr = p[idx+1:]
				}
				t, err := wit.ParseType(strings.TrimSpace(typStr))
				if err != nil {
					return nil, errors.ParseFailed("WIT param type "+typStr, err)
				}
				sig.params = append(sig.params, t)
			}
		}

		if resultStr := strings.TrimSpace(match[3]); resultStr != "" {
			t, err := wit.ParseType(resultStr)
			if err != nil {
				return nil, errors.ParseFailed("WIT result type "+resultStr, err)
			}
			sig.results = []wit.Type{t}
		}

		funcs[name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no functions found in WIT text")
	}
	return funcs, nil
}

// coreType lowers a WIT type to its core wasm value type.
func coreType(t wit.Type) (api.ValueType, bool) {
	switch t.(type) {
	case wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32:
		return api.ValueTypeI32, true
	case wit.U64, wit.S64:
		return api.ValueTypeI64, true
	case wit.F32:
		return api.ValueTypeF32, true
	case wit.F64:
		return api.ValueTypeF64, true
	default:
		return 0, false
	}
}

// validateExports checks that every ABI function exists in the compiled
// module with a matching core signature.
func validateExports(mod *engine.Module, sigs map[string]*funcSignature) error {
	exports := mod.ExportedFunctions()

	for name, sig := range sigs {
		def, ok := exports[name]
		if !ok {
			return errors.MissingExport(name, sig.text)
		}
		if err := matchSignature(name, sig, def); err != nil {
			return err
		}
	}
	return nil
}

func matchSignature(name string, sig *funcSignature, def api.FunctionDefinition) error {
	mismatch := func(detail string) error {
		return errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Path(name).
			Detail("export signature mismatch: %s (want %s)", detail, sig.text).
			Build()
	}

	if len(def.ParamTypes()) != len(sig.params) {
		return mismatch("param count")
	}
	for i, p := range sig.params {
		want, ok := coreType(p)
		if !ok || def.ParamTypes()[i] != want {
			return mismatch("param type")
		}
	}
	if len(def.ResultTypes()) != len(sig.results) {
		return mismatch("result count")
	}
	for i, r := range sig.results {
		want, ok := coreType(r)
		if !ok || def.ResultTypes()[i] != want {
			return mismatch("result type")
		}
	}
	return nil
}
