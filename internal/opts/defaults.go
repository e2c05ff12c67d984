/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package opts

import (
	"io"
	"os"

	"github.com/xyproto/env/v2"
)

const (
	_DefaultMaxRounds = 0 // bounded by the instruction count only
)

var (
	MaxRounds      = parseOrDefault("LOOPOPT_MAX_ROUNDS", _DefaultMaxRounds, 0)
	StrictDivision = boolOrDefault("LOOPOPT_STRICT_SDIV", true)
	Trace          = traceOrDefault("LOOPOPT_TRACE")
)

func parseOrDefault(key string, def int, min int) int {
	if !env.Has(key) {
		return def
	} else if ret := env.Int(key, -1); ret < min {
		panic("loopopt: invalid value for " + key)
	} else {
		return ret
	}
}

func boolOrDefault(key string, def bool) bool {
	if !env.Has(key) {
		return def
	} else {
		return env.Bool(key)
	}
}

func traceOrDefault(key string) io.Writer {
	if env.Bool(key) {
		return os.Stderr
	} else {
		return nil
	}
}
