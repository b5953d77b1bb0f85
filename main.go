// Copyright 2020 OpenSSF Scorecard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main wires and runs the crawler's root command.
package main

import (
	"log"
	"os"

	"github.com/pdiegmann/copima-cli-crawler-sub001/cmd"
	sce "github.com/pdiegmann/copima-cli-crawler-sub001/errors"
	"github.com/pdiegmann/copima-cli-crawler-sub001/options"
)

func main() {
	opts := options.New()
	if err := cmd.New(opts).Execute(); err != nil {
		log.Print(err)
		os.Exit(sce.ExitCode(err))
	}
}
