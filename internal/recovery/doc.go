// Package recovery turns free-form model output into a JSON object.
//
// Hosted models are asked for JSON but frequently return something close to
// it: objects wrapped in markdown fences, prose before or after the object,
// or string values containing unescaped backslashes. [Parse] applies an
// ordered list of independent strategies and returns the first success:
//
//  1. direct parse of the whole text
//  2. escape repair (double every backslash that is not a valid JSON escape)
//  3. markdown fence extraction, then 1 and 2 on the fence body
//  4. first '{' to last '}' extraction, then 1 and 2 on the substring
//
// When every strategy fails the returned [*DecodeError] carries the raw text.
package recovery
