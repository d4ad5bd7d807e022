// Command signspeak serves sign-language letter and digit recognition with
// spoken output.
package main

func main() {
	Execute()
}
