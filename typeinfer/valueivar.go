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

package typeinfer

import "github.com/rlang/hirxc/hir"

// valueSlot is the value-ivar counterpart of typeSlot (spec.md §4.3.2): a
// smaller union-find over const-generic values (array lengths and the
// like), with no literal-fallback class to track.
type valueSlot struct {
	isAlias bool
	alias   int
	known   bool
	value   uint64
}

// NewValueIvar allocates a fresh, unresolved value inference variable.
func (c *Context) NewValueIvar() hir.ValueParam {
	idx := len(c.valueSlots)
	c.valueSlots = append(c.valueSlots, valueSlot{})
	return hir.ValueParam{Ivar: idx}
}

// GetValue follows v's alias chain to its resolved value, reporting
// whether it is currently known.
func (c *Context) GetValue(v hir.ValueParam) (uint64, bool) {
	if v.Known {
		return v.Value, true
	}
	idx := v.Ivar
	for steps := 0; steps <= len(c.valueSlots); steps++ {
		if idx < 0 || idx >= len(c.valueSlots) {
			return 0, false
		}
		slot := c.valueSlots[idx]
		if !slot.isAlias {
			return slot.value, slot.known
		}
		idx = slot.alias
	}
	return 0, false
}

func (c *Context) valueRoot(idx int) int {
	for steps := 0; steps <= len(c.valueSlots); steps++ {
		slot := c.valueSlots[idx]
		if !slot.isAlias {
			return idx
		}
		idx = slot.alias
	}
	return idx
}

// SetIvarValTo implements set_ivar_val_to: assign a concrete value to
// slot idx, or alias it to another still-unresolved ivar.
func (c *Context) SetIvarValTo(idx int, v hir.ValueParam) {
	idx = c.valueRoot(idx)
	if !v.Known {
		rIdx := c.valueRoot(v.Ivar)
		if rIdx == idx {
			return
		}
		c.valueSlots[idx] = valueSlot{isAlias: true, alias: rIdx}
		return
	}
	c.valueSlots[idx] = valueSlot{known: true, value: v.Value}
}

// IvarValUnify implements ivar_val_unify: alias b's root to a's root.
func (c *Context) IvarValUnify(a, b int) {
	aRoot, bRoot := c.valueRoot(a), c.valueRoot(b)
	if aRoot == bRoot {
		return
	}
	c.valueSlots[bRoot] = valueSlot{isAlias: true, alias: aRoot}
}
