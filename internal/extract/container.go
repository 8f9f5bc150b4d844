package extract

import (
	"slices"

	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/protocol/pb"
)

// moduleEffects are the module effect ids reported to consumers.
var moduleEffects = map[int32]struct{}{
	1110: {}, 1111: {}, 1112: {}, 1113: {}, 1114: {},
	1205: {}, 1206: {},
	1307: {}, 1308: {},
	1407: {}, 1408: {}, 1409: {}, 1410: {},
	2104: {}, 2105: {},
	2204: {}, 2205: {},
	2304: {},
	2404: {}, 2405: {}, 2406: {},
}

func (x *Extractor) containerData(msg *pb.SyncContainerData) []event.Event {
	v := msg.VData
	if v == nil {
		return nil
	}
	if v.CharID == 0 {
		x.log.Warn("container data without char id")
		return nil
	}

	var out []event.Event
	if base := v.CharBase; base != nil {
		if base.Name != "" {
			out = append(out, event.PlayerName{PlayerUID: v.CharID, Name: base.Name})
		}
		if base.AccountID != "" {
			out = append(out, event.PlayerAccountInfo{AccountID: base.AccountID, UID: v.CharID})
		}
	}
	if v.SceneData != nil && v.SceneData.LineID > 0 {
		out = append(out, event.PlayerLineInfo{LineID: v.SceneData.LineID})
	}
	if modules := extractModules(v); len(modules) > 0 {
		out = append(out, event.ModuleData{Modules: modules})
	}
	return out
}

// extractModules pairs each equipped module's parts with their link levels.
// Packages and items are visited in key order.
func extractModules(v *pb.CharSerialize) []event.Module {
	if v.Mod == nil || v.ItemPackage == nil {
		return nil
	}

	var modules []event.Module
	for _, pkgKey := range sortedKeys(v.ItemPackage.Packages) {
		items := v.ItemPackage.Packages[pkgKey].Items
		for _, itemKey := range sortedKeys(items) {
			item := items[itemKey]
			if item.ModNewAttr == nil || len(item.ModNewAttr.ModParts) == 0 {
				continue
			}
			parts := item.ModNewAttr.ModParts
			links := v.Mod.ModInfos[itemKey].InitLinkNums

			var effects []event.ModuleEffect
			for i := 0; i < min(len(parts), len(links)); i++ {
				if _, ok := moduleEffects[parts[i]]; !ok {
					continue
				}
				effects = append(effects, event.ModuleEffect{ID: parts[i], Level: uint32(max(links[i], 0))})
			}
			if len(effects) > 0 {
				modules = append(modules, event.Module{Effects: effects})
			}
		}
	}
	return modules
}

func sortedKeys[K int32 | int64, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
