// Package tagger describes the register block of the tagger peripheral,
// which binds address ranges to partition IDs so that memory accesses can
// be classified per partition.
//
// The number of partition ID and address mode registers depends on the
// hardware parameters the peripheral is instantiated with, Description
// derives the register description from them.
package tagger

//go:generate go run ../../cmd/regtool tagger -o ../../data/tagger_regs.hjson
//go:generate go run ../../cmd/regtool gen --lang go --out-dir taggerreg ../../data/tagger_regs.hjson
//go:generate go run ../../cmd/regtool gen --lang c --out-dir ../../include ../../data/tagger_regs.hjson

import (
	"io"
	"text/template"

	"github.com/pkg/errors"

	"github.com/go-regtool/regtool/pkg/regdesc"
)

// BlockName is the name of the tagger register block.
const BlockName = "tagger_reg"

// SourceName is the conventional file name of the tagger description.
const SourceName = "tagger_regs.hjson"

// Address encoding modes of a partition, stored in ADDR_CONF.
const (
	AddrModeOff = 0
	AddrModeTOR = 1
	AddrModeNA4 = 2

	// AddrModeBits is the width of the mode of one partition.
	AddrModeBits = 2
)

// Params are the hardware parameters of a tagger instance.
type Params struct {
	// RegWidth is the register width in bits.
	RegWidth int
	// MaxPartition is the number of partitions.
	MaxPartition int
	// PatidLen is the width of a partition ID in bits.
	PatidLen int
}

// DefaultParams are the parameters of the tagger the checked in
// description and headers are generated for.
var DefaultParams = Params{RegWidth: 32, MaxPartition: 8, PatidLen: 4}

// Validate checks that the parameters describe a tagger that can be built.
func (p Params) Validate() error {
	switch {
	case !regdesc.ValidRegWidth(p.RegWidth):
		return errors.Errorf("register width %d is not one of 8, 16, 32 or 64", p.RegWidth)
	case p.MaxPartition <= 0:
		return errors.Errorf("max partition %d must be positive", p.MaxPartition)
	case p.PatidLen <= 0 || p.PatidLen > p.RegWidth:
		return errors.Errorf("partition ID length %d must be between 1 and the register width", p.PatidLen)
	}
	return nil
}

// PatidsPerReg returns how many partition IDs fit in a register.
func (p Params) PatidsPerReg() int {
	return p.RegWidth / p.PatidLen
}

// NumPatidRegs returns the number of PATID registers.
func (p Params) NumPatidRegs() int {
	return ceilDiv(p.MaxPartition, p.PatidsPerReg())
}

// NumConfRegs returns the number of ADDR_CONF registers, each one holds
// the address mode of RegWidth/AddrModeBits partitions.
func (p Params) NumConfRegs() int {
	return ceilDiv(p.MaxPartition, p.RegWidth/AddrModeBits)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func wholeRegister(p Params) regdesc.BitRange {
	return regdesc.BitRange{Msb: p.RegWidth - 1, Lsb: 0}
}

func multireg(name, desc string, count int, hw regdesc.Access, f *regdesc.Field) regdesc.Entry {
	f.SwAccess = "rw"
	f.HasResVal = true
	return regdesc.Entry{
		Kind: regdesc.MultiregEntry,
		Multireg: &regdesc.Multireg{
			Register: regdesc.Register{
				Name:     name,
				Desc:     desc,
				SwAccess: "rw",
				HwAccess: hw,
				Fields:   []*regdesc.Field{f},
			},
			Count:   count,
			CName:   "TAGGER",
			Compact: true,
		},
	}
}

// Description returns the register description of a tagger built with p.
func Description(p Params) (*regdesc.Block, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &regdesc.Block{
		Name:      BlockName,
		RegWidth:  p.RegWidth,
		Copyright: []string{"Copyright 2018-2021 ETH Zurich and University of Bologna."},
		License:   []string{"SPDX-License-Identifier: SHL-0.51"},
		Source:    SourceName,
		Entries: []regdesc.Entry{
			multireg("PAT_COMMIT", "Partition configuration commit register", 1, "hrw", &regdesc.Field{
				Name: "commit",
				Desc: "commit changes of partition configuration",
				Bits: regdesc.BitRange{Msb: 0, Lsb: 0},
			}),
			multireg("PAT_ADDR", "Partition address", p.MaxPartition, "hro", &regdesc.Field{
				Name: "PAT_ADDR",
				Desc: "Single partition configurations: address",
				Bits: wholeRegister(p),
			}),
			multireg("PATID", "Partition ID", p.NumPatidRegs(), "hro", &regdesc.Field{
				Name: "PATID",
				Desc: "Partition ID (PatID) for each partition, length determined by params",
				Bits: wholeRegister(p),
			}),
			multireg("ADDR_CONF", "Address encoding mode switch register", p.NumConfRegs(), "hro", &regdesc.Field{
				Name: "addr_comf",
				Desc: "2 bits configuration for each partition. 2'b00: OFF, 2'b01: TOR, 2'b10: NA4",
				Bits: wholeRegister(p),
			}),
		},
	}, nil
}

var hjsonTemplate = template.Must(template.New("tagger").Parse(`// Copyright 2018-2021 ETH Zurich and University of Bologna.
// Solderpad Hardware License, Version 0.51, see LICENSE for details.
// SPDX-License-Identifier: SHL-0.51
//
// Generated by: regtool tagger --reg-width {{.Params.RegWidth}} --max-partition {{.Params.MaxPartition}} --patid-len {{.Params.PatidLen}}
{
    name: "{{.Block.Name}}",
    clock_primary: "clk_i",
    reset_primary: "rst_ni",
    bus_interfaces: [{
        protocol: "reg_iface",
        direction: "device"
    }],
    regwidth: "{{.Block.RegWidth}}",
    registers: [
{{- range $i, $e := .Block.Entries}}{{with $e.Multireg}}{{if $i}},{{end}}
        {
            multireg: {
                name: "{{.Name}}",
                desc: "{{.Desc}}",
                count: "{{.Count}}",
                cname: "{{.CName}}",
                swaccess: "{{.SwAccess}}",
                hwaccess: "{{.HwAccess}}",
                fields: [
{{- range $j, $f := .Fields}}{{if $j}},{{end}}
                    {
                        bits: "{{$f.Bits}}",
                        name: "{{$f.Name}}",
                        desc: "{{$f.Desc}}",
                        resval: "{{$f.ResVal}}"
                    }
{{- end}}
                ]
            }
        }
{{- end}}{{end}}
    ]
}
`))

// WriteHJSON writes the description of a tagger built with p in the HJSON
// register description format.
func WriteHJSON(w io.Writer, p Params) error {
	b, err := Description(p)
	if err != nil {
		return err
	}
	return hjsonTemplate.Execute(w, struct {
		Params Params
		Block  *regdesc.Block
	}{p, b})
}
