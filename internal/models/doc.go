// Package models defines the venue admin data exchanged with the Dhun Jam API.
//
// The price categories are a fixed, ordered table of [CategorySpec] records:
//
//	custom  category_6   floor 99
//	tier1   category_7   floor 79
//	tier2   category_8   floor 59
//	tier3   category_9   floor 39
//	tier4   category_10  floor 19
//
// [Amounts] is a fixed-size array indexed by [Category], so a settings value can never gain or lose a category.
// Its JSON form uses the wire keys and rejects payloads missing any of them.
//
// [AdminSettings] mirrors the remote admin record; [Session] is the locally persisted login.
package models
