// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mathml

import "testing"

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no math passes through",
			in:   "Deep learning for symbolic mathematics",
			want: "Deep learning for symbolic mathematics",
		},
		{
			name: "subscript",
			in:   "Water is <math><msub><mi>H</mi><mn>2</mn></msub><mi>O</mi></math>",
			want: "Water is H_2O",
		},
		{
			name: "superscript",
			in:   "<math><msup><mi>x</mi><mn>2</mn></msup></math> growth",
			want: "x^2 growth",
		},
		{
			name: "subsup",
			in:   "<math><msubsup><mi>x</mi><mn>0</mn><mn>2</mn></msubsup></math>",
			want: "x^0_2",
		},
		{
			name: "fraction",
			in:   "<math><mfrac><mi>a</mi><mi>b</mi></mfrac></math>",
			want: "a/b",
		},
		{
			name: "square root",
			in:   "<math><msqrt>2</msqrt></math>",
			want: "√2",
		},
		{
			name: "mroot",
			in:   "<math><mroot><mn>8</mn><mn>3</mn></mroot></math>",
			want: "8√3",
		},
		{
			name: "fenced defaults",
			in:   "<math><mfenced><mi>a</mi><mi>b</mi><mi>c</mi></mfenced></math>",
			want: "(a,b,c)",
		},
		{
			name: "fenced custom delimiters",
			in:   `<math><mfenced open="[" close="]" separators=";"><mi>a</mi><mi>b</mi></mfenced></math>`,
			want: "[a;b]",
		},
		{
			name: "mrow is inlined",
			in:   "<math><mrow><mi>a</mi><mo>+</mo><mi>b</mi></mrow></math>",
			want: "a+b",
		},
		{
			name: "mml prefix stripped",
			in:   `<mml:math xmlns:mml="http://www.w3.org/1998/Math/MathML"><mml:mi>x</mml:mi></mml:math>`,
			want: "x",
		},
		{
			name: "quoted string literal",
			in:   "<math><ms>abc</ms></math>",
			want: `"abc"`,
		},
		{
			name: "unknown tag renders empty",
			in:   "<math><munknown>x</munknown></math>",
			want: "",
		},
		{
			name: "surrounding text kept",
			in:   "On <math><msup><mi>L</mi><mn>2</mn></msup></math> spaces and beyond",
			want: "On L^2 spaces and beyond",
		},
		{
			name: "multiple math blocks",
			in:   "<math><mi>a</mi></math> and <math><mi>b</mi></math>",
			want: "a and b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Flatten(tt.in); got != tt.want {
				t.Errorf("Flatten(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
