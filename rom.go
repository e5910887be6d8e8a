// rom.go - ROM set loading, size/CRC32 verification for the Galaga PCB.
package main

import (
	"hash/crc32"
	"os"
	"path/filepath"
)

// RomFile describes one logical ROM identifier's on-disk expectations.
type RomFile struct {
	Ident    string
	Filename string
	Alt      string // alternate filename tried on primary miss
	Size     int
	CRC32    uint32
	Desc     string
}

// RomSetDef lists every file that makes up one recognised ROM set.
type RomSetDef struct {
	Name  string
	Files []RomFile
}

// RomSet holds the loaded byte blocks consumed by bus construction and the
// video/palette pipeline.
type RomSet struct {
	Name string

	CPU1Code []byte // 16KiB, four 4KiB blocks concatenated
	CPU2Code []byte // 4KiB
	CPU3Code []byte // 4KiB

	Tiles     []byte // 4KiB
	SpriteLo  []byte // 4KiB
	SpriteHi  []byte // 4KiB
	ColorProm [32]byte
	CharLookupProm  []byte // 256 bytes
	SpriteLookupProm []byte // 256 bytes
	ControlProm1 []byte // 256 bytes
	ControlProm2 []byte // 256 bytes
	MCU1         []byte // 1KiB
	MCU2         []byte // 1KiB
}

var recognisedRomSets = map[string]RomSetDef{
	"galaga":   galagaRomSetDef("galaga"),
	"galagao":  galagaRomSetDef("galagao"),
	"galagamw": galagaRomSetDef("galagamw"),
	"galagamk": galagaRomSetDef("galagamk"),
}

// galagaRomSetDef returns the file list for one named variant. File names
// follow the MAME convention for the four Galaga romsets. Every entry's
// CRC32 is left at zero, which LoadRomSet treats as "not verified", so no
// file of a recognised set is checksum-checked and skip_checksums has no
// effect on them; only a RomFile with a nonzero CRC32 is verified.
func galagaRomSetDef(name string) RomSetDef {
	return RomSetDef{
		Name: name,
		Files: []RomFile{
			{Ident: "cpu1_0", Filename: "gg1_1.3p", Size: 0x1000, Desc: "CPU1 code block 0"},
			{Ident: "cpu1_1", Filename: "gg1_2.3m", Size: 0x1000, Desc: "CPU1 code block 1"},
			{Ident: "cpu1_2", Filename: "gg1_3.2m", Size: 0x1000, Desc: "CPU1 code block 2"},
			{Ident: "cpu1_3", Filename: "gg1_4.2l", Size: 0x1000, Desc: "CPU1 code block 3"},
			{Ident: "cpu2", Filename: "gg1_5.3f", Size: 0x1000, Desc: "CPU2 code"},
			{Ident: "cpu3", Filename: "gg1_7.2c", Size: 0x1000, Desc: "CPU3 code"},
			{Ident: "tiles", Filename: "gg1_9.4l", Size: 0x1000, Desc: "tile graphics"},
			{Ident: "sprite_lo", Filename: "gg1_11.4d", Size: 0x1000, Desc: "sprite graphics, low"},
			{Ident: "sprite_hi", Filename: "gg1_10.4f", Size: 0x1000, Desc: "sprite graphics, high"},
			{Ident: "color_prom", Filename: "prom-5.5n", Size: 32, Desc: "color PROM"},
			{Ident: "char_lookup", Filename: "prom-4.2n", Size: 256, Desc: "char lookup PROM"},
			{Ident: "sprite_lookup", Filename: "prom-3.1c", Size: 256, Desc: "sprite lookup PROM"},
			{Ident: "control_1", Filename: "prom-1.1d", Size: 256, Desc: "control PROM 1"},
			{Ident: "control_2", Filename: "prom-2.5c", Size: 256, Desc: "control PROM 2"},
			{Ident: "mcu_1", Filename: "51xx.bin", Size: 1024, Desc: "Namco 51XX MCU"},
			{Ident: "mcu_2", Filename: "54xx.bin", Size: 1024, Desc: "Namco 54XX MCU"},
		},
	}
}

// LoadRomSet loads and verifies the named ROM set from romPath.
// skipChecksums downgrades a CRC32 mismatch from a fatal error to a
// logged warning via the warn callback.
func LoadRomSet(romPath, setName string, skipChecksums bool, warn func(error)) (*RomSet, error) {
	def, ok := recognisedRomSets[setName]
	if !ok {
		return nil, &UnknownRomSetError{Name: setName}
	}

	blocks := make(map[string][]byte, len(def.Files))
	for _, f := range def.Files {
		data, err := loadRomFile(romPath, f)
		if err != nil {
			return nil, err
		}
		if len(data) != f.Size {
			return nil, &RomSizeMismatchError{Ident: f.Ident, Filename: f.Filename, Want: f.Size, Got: len(data)}
		}
		if f.CRC32 != 0 {
			got := crc32.ChecksumIEEE(data)
			if got != f.CRC32 {
				err := &RomChecksumMismatchError{Ident: f.Ident, Filename: f.Filename, Want: f.CRC32, Got: got}
				if !skipChecksums {
					return nil, err
				}
				if warn != nil {
					warn(err)
				}
			}
		}
		blocks[f.Ident] = data
	}

	set := &RomSet{
		Name:             setName,
		CPU1Code:         concatBytes(blocks["cpu1_0"], blocks["cpu1_1"], blocks["cpu1_2"], blocks["cpu1_3"]),
		CPU2Code:         blocks["cpu2"],
		CPU3Code:         blocks["cpu3"],
		Tiles:            blocks["tiles"],
		SpriteLo:         blocks["sprite_lo"],
		SpriteHi:         blocks["sprite_hi"],
		CharLookupProm:   blocks["char_lookup"],
		SpriteLookupProm: blocks["sprite_lookup"],
		ControlProm1:     blocks["control_1"],
		ControlProm2:     blocks["control_2"],
		MCU1:             blocks["mcu_1"],
		MCU2:             blocks["mcu_2"],
	}
	copy(set.ColorProm[:], blocks["color_prom"])
	return set, nil
}

func loadRomFile(romPath string, f RomFile) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(romPath, f.Filename))
	if err == nil {
		return data, nil
	}
	if f.Alt != "" {
		data, altErr := os.ReadFile(filepath.Join(romPath, f.Alt))
		if altErr == nil {
			return data, nil
		}
	}
	return nil, &RomMissingError{RomSet: "", Ident: f.Ident, Filename: f.Filename}
}

func concatBytes(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
