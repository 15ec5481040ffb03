// Copyright (c) 2024 The HIRXC Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package traitresolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rlang/hirxc/hir"
)

// typeKey renders a fully structural (not just bucketed, unlike
// hir.Crate's internal typeHead) string key for a type, used as the map
// key of every per-query cache in this package. It doesn't need to be
// pretty, only injective enough that two distinct concrete types never
// collide.
func typeKey(t hir.Type) string {
	var b strings.Builder
	writeTypeKey(&b, t)
	return b.String()
}

func writeTypeKey(b *strings.Builder, t hir.Type) {
	if t == nil {
		b.WriteString("_")
		return
	}
	switch v := t.(type) {
	case *hir.Infer:
		b.WriteString("?")
		b.WriteString(strconv.Itoa(v.Ivar))
	case *hir.Diverge:
		b.WriteString("!")
	case *hir.Primitive:
		b.WriteString(string(v.Name))
	case *hir.PathType:
		b.WriteString("P(")
		writePathKey(b, v.Path)
		b.WriteString(")")
	case *hir.Generic:
		b.WriteString("G(")
		b.WriteString(strconv.Itoa(int(v.Group)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(v.Index)))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(v.ImplID, 10))
		b.WriteString(")")
	case *hir.TraitObject:
		b.WriteString("dyn(")
		writeGenericPathKey(b, v.Principal)
		for _, m := range v.Markers {
			b.WriteByte('+')
			writeGenericPathKey(b, m)
		}
		b.WriteString(")")
	case *hir.ErasedType:
		b.WriteString("impl#")
		b.WriteString(strconv.Itoa(v.Index))
	case *hir.Array:
		b.WriteString("[")
		writeTypeKey(b, v.Element)
		b.WriteString(";")
		if v.Len.Known {
			b.WriteString(strconv.FormatUint(v.Len.Value, 10))
		} else {
			b.WriteString("?")
		}
		b.WriteString("]")
	case *hir.Slice:
		b.WriteString("[")
		writeTypeKey(b, v.Element)
		b.WriteString("]")
	case *hir.Tuple:
		b.WriteString("(")
		for i, e := range v.Elements {
			if i > 0 {
				b.WriteByte(',')
			}
			writeTypeKey(b, e)
		}
		b.WriteString(")")
	case *hir.Borrow:
		if v.Kind == hir.BorrowUnique {
			b.WriteString("&mut ")
		} else {
			b.WriteString("&")
		}
		writeTypeKey(b, v.Inner)
	case *hir.Pointer:
		if v.Kind == hir.PointerMut {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}
		writeTypeKey(b, v.Inner)
	case *hir.FunctionType:
		b.WriteString("fn(")
		for i, a := range v.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			writeTypeKey(b, a)
		}
		b.WriteString(")->")
		writeTypeKey(b, v.Return)
	case *hir.ClosureType:
		b.WriteString("closure#")
		b.WriteString(fmt.Sprintf("%p", v.Node))
	case *hir.GeneratorType:
		b.WriteString("generator#")
		b.WriteString(fmt.Sprintf("%p", v.Node))
	default:
		b.WriteString("other")
	}
}

func writePathKey(b *strings.Builder, p *hir.Path) {
	if p == nil {
		b.WriteString("_")
		return
	}
	switch p.Kind {
	case hir.PathGeneric:
		writeGenericPathKey(b, p.Generic)
	case hir.PathUfcsInherent:
		b.WriteString("<")
		writeTypeKey(b, p.UfcsSelfType)
		b.WriteString(">::")
		b.WriteString(p.UfcsItem)
	case hir.PathUfcsKnown:
		b.WriteString("<")
		writeTypeKey(b, p.UfcsSelfType)
		b.WriteString(" as ")
		writeGenericPathKey(b, p.UfcsTrait)
		b.WriteString(">::")
		b.WriteString(p.UfcsItem)
	default:
		b.WriteString("<?>::")
		b.WriteString(p.UfcsItem)
	}
}

func writeGenericPathKey(b *strings.Builder, g *hir.GenericPath) {
	if g == nil {
		b.WriteString("_")
		return
	}
	b.WriteString(strings.Join(g.Segments, "::"))
	if g.Params == nil {
		return
	}
	b.WriteString("<")
	for i, t := range g.Params.Types {
		if i > 0 {
			b.WriteByte(',')
		}
		writeTypeKey(b, t)
	}
	b.WriteString(">")
}
