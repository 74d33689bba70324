// Package state defines the memory blob shared between the host and every
// loaded plugin.
//
// A single State value is allocated by the plugin registry, pinned, and
// handed to foreign code by pointer on every ABI call. Plugins keep that
// pointer (and offsets into it) for as long as they are mounted, so the
// layout below is a stability contract:
//
//	offset  size   field
//	0       4      Version            ABI version, currently 1
//	4       4      Persona.Sheet      sprite sheet selector (0 = none)
//	8       6400   Persona.Emotion    [MaxDraw][MaxXY]Tuple
//	6408    4      Persona.Position.Cardinal
//	6412    4      Persona.Position.Cartesian [2]uint16
//	6416    4      Tooltip.Cardinal   Relative
//	6420    12288  Tooltip.Message    [MessageCapacity]Character
//	18708   1      Unmount            non-zero: plugin asks to be unmounted
//	18709   1      Lock               non-zero: plugin holds the keyboard
//	size 18712 (4-byte aligned)
//
// Every field is a fixed-size value type; there are no Go pointers, slices
// or strings inside the blob. The host mutates it only between dispatch
// passes through the setters on State.
package state
