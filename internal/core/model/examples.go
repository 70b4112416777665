// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// GetExampleScript is the few-shot example embedded in script prompts.
func GetExampleScript() *Script {
	s, _ := NewScript("The Lighthouse Keeper", []Scene{
		{
			Number:          1,
			Narration:       "Every night for forty years, Mara climbed the hundred steps of the lighthouse.",
			DisplayText:     "Every night for forty years, Mara climbed the lighthouse.",
			DurationSeconds: 5.0,
			BackgroundColor: "#1a1a2e",
		},
		{
			Number:          2,
			Narration:       "One winter the lamp went dark, and the whole village came to help her light it.",
			DisplayText:     "One winter the lamp went dark.",
			DurationSeconds: 4.5,
			BackgroundColor: "#16213e",
		},
		{
			Number:          3,
			Narration:       "From then on, she never climbed alone.",
			DisplayText:     "She never climbed alone.",
			DurationSeconds: 3.0,
			BackgroundColor: "#0f3460",
		},
	})
	return s
}
