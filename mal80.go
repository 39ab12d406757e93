// This file is part of Mal-80.
//
// Mal-80 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Mal-80 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Mal-80.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/harrowm/mal-80/logger"
	"github.com/harrowm/mal-80/modalflag"
	"github.com/harrowm/mal-80/statsview"
)

func init() {
	// SDL requires window and event handling to happen on the main thread
	runtime.LockOSThread()
}

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.AddSubModes("RUN", "ZEX")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		os.Exit(0)
	case modalflag.ParseError:
		fmt.Printf("* %s\n", err)
		os.Exit(1)
	}

	switch md.Mode() {
	case "RUN":
		err = emulate(md)
	case "ZEX":
		err = zex(md)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", md.String(), err)
		os.Exit(1)
	}

	os.Exit(0)
}

func emulate(md *modalflag.Modes) error {
	md.NewMode()

	load := md.AddString("load", "", "autoload the first matching file from the software directory")
	disk := md.AddString("disk", "", "mount a JV1 floppy image into drive 0")
	wavFile := md.AddString("wav", "", "record the sound line to a wav file")
	scale := md.AddInt("scale", 3, "window scaling")
	echoLog := md.AddBool("log", false, "echo debugging log to stderr")
	stats := md.AddBool("stats", false, "launch statistics server")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *echoLog {
		logger.SetEcho(os.Stderr)
	}

	if *stats {
		if statsview.Available() {
			statsview.Launch(os.Stdout)
		} else {
			fmt.Println("* statsview is not available in this build (rebuild with -tags statsview)")
		}
	}

	em, err := newEmulator(*load, *disk, *wavFile, *scale)
	if err != nil {
		return err
	}

	return em.run()
}
